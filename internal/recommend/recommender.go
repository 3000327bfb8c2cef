// Package recommend produces local recommendations (restaurants, activities,
// groceries) for guests by prompting an LLM provider chain.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

var tracer = otel.Tracer("ai-concierge.recommend")

const systemPrompt = `You are a friendly local concierge texting a vacation rental guest.
Answer in plain text suitable for SMS: no markdown, no bullet symbols, no links.
Keep the whole reply under 480 characters.
Only recommend real, currently operating places near the given address and include an approximate drive time when you can.
Never recommend a place listed under "Do not suggest".`

// RecommendationRequest is what the dialog needs recommended.
type RecommendationRequest struct {
	Query           string
	PropertyName    string
	PropertyAddress string
	RequestType     string
	Vibe            string
	MealType        string
	RejectedOptions []string
	// Single asks for exactly one curated pick instead of a short list.
	Single bool
}

// LLMRecommender asks an LLMClient for recommendations.
type LLMRecommender struct {
	client      LLMClient
	logger      *logging.Logger
	maxTokens   int32
	temperature float32
}

// NewLLMRecommender wraps client, typically a FallbackLLMClient.
func NewLLMRecommender(client LLMClient, logger *logging.Logger) *LLMRecommender {
	if client == nil {
		panic("recommend: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMRecommender{client: client, logger: logger, maxTokens: 300, temperature: 0.7}
}

// GetRecommendations returns SMS-ready recommendation text.
func (r *LLMRecommender) GetRecommendations(ctx context.Context, req RecommendationRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "recommend.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("concierge.recommend.request_type", req.RequestType),
		attribute.Int("concierge.recommend.rejected", len(req.RejectedOptions)),
		attribute.Bool("concierge.recommend.single", req.Single),
	)

	start := time.Now()
	resp, err := r.client.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: BuildPrompt(req)}},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("recommendation failed", "request_type", req.RequestType, "latency_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("recommend: completion failed: %w", err)
	}

	text := sanitizeSMS(resp.Text)
	if text == "" {
		err := errors.New("recommend: empty recommendation")
		span.RecordError(err)
		return "", err
	}
	r.logger.Info("recommendation generated",
		"request_type", req.RequestType,
		"latency_ms", time.Since(start).Milliseconds(),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return text, nil
}

// BuildPrompt renders the user turn sent to the model.
func BuildPrompt(req RecommendationRequest) string {
	var b strings.Builder
	if req.PropertyName != "" {
		fmt.Fprintf(&b, "Guest is staying at %s.\n", req.PropertyName)
	}
	if req.PropertyAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", req.PropertyAddress)
	} else {
		b.WriteString("The guest is traveling and has not shared an address. Suggest well-known options and ask which area they are in if it matters.\n")
	}
	if req.RequestType != "" {
		fmt.Fprintf(&b, "Request type: %s\n", req.RequestType)
	}
	if req.MealType != "" {
		fmt.Fprintf(&b, "Meal: %s\n", req.MealType)
	}
	if req.Vibe != "" {
		fmt.Fprintf(&b, "Preferred vibe: %s\n", req.Vibe)
	}
	if len(req.RejectedOptions) > 0 {
		fmt.Fprintf(&b, "Do not suggest: %s\n", strings.Join(req.RejectedOptions, ", "))
	}
	if req.Single {
		b.WriteString("Give exactly ONE recommendation with one sentence on why it fits.\n")
	} else {
		b.WriteString("Give two or three options, one short line each.\n")
	}
	fmt.Fprintf(&b, "Guest message: %s", strings.TrimSpace(req.Query))
	return b.String()
}

var (
	boldPattern     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern   = regexp.MustCompile(`\*([^\s*][^*]*[^\s*])\*`)
	bulletPattern   = regexp.MustCompile(`(?m)^[ \t]*[-•*][ \t]+`)
	numberedPattern = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
	spaceRuns       = regexp.MustCompile(`[ \t]{2,}`)
)

// sanitizeSMS strips markdown that does not render on a phone.
func sanitizeSMS(msg string) string {
	msg = boldPattern.ReplaceAllString(msg, "$1")
	msg = italicPattern.ReplaceAllString(msg, "$1")
	msg = bulletPattern.ReplaceAllString(msg, "")
	msg = numberedPattern.ReplaceAllString(msg, "")
	msg = blankRuns.ReplaceAllString(msg, "\n\n")
	msg = spaceRuns.ReplaceAllString(msg, " ")
	return strings.TrimSpace(msg)
}
