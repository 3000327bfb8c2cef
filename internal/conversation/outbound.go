package conversation

import "context"

// ReplyMessenger delivers concierge replies back to the guest.
type ReplyMessenger interface {
	SendReply(ctx context.Context, reply OutboundReply) error
}

// OutboundReply is one SMS segment addressed to a guest.
type OutboundReply struct {
	To   string
	Body string
	// Part and Parts number the segment within the reply, starting at 1.
	Part  int
	Parts int
	// InReplyTo is the carrier id of the inbound message, when known.
	InReplyTo string
}
