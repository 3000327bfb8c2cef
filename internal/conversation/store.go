package conversation

import "context"

// Store persists conversations keyed by phone number.
//
// Writes are last-write-wins. Service serializes turns for one phone number
// within a process, but two processes handling the same number at once can
// overwrite each other's context.
type Store interface {
	// GetConversation returns ErrNotFound when the number has never texted.
	GetConversation(ctx context.Context, phone string) (*Conversation, error)
	CreateConversation(ctx context.Context, phone string) (*Conversation, error)
	UpdateConversation(ctx context.Context, phone string, u Update) (*Conversation, error)
}
