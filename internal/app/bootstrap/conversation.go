package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/mchlbschmdt/ai-concierge/internal/config"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/internal/recommend"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// BuildRecommender wires the LLM provider chain: Bedrock first, Gemini as
// fallback. It returns a nil Recommender when no provider is configured, in
// which case the dialog answers from host notes only. The returned func
// releases provider clients.
func BuildRecommender(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (conversation.Recommender, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var providers []recommend.Provider
	closers := []func(){}
	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" && awsCfg != nil {
		providers = append(providers, recommend.Provider{
			Name:   "bedrock",
			Client: recommend.NewBedrockLLMClient(bedrockruntime.NewFromConfig(*awsCfg), model),
		})
	}
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		gemini, err := recommend.NewGeminiLLMClient(ctx, key, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			providers = append(providers, recommend.Provider{Name: "gemini", Client: gemini})
			closers = append(closers, func() { _ = gemini.Close() })
		}
	}
	release := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(providers) == 0 {
		logger.Warn("no LLM provider configured; recommendations fall back to host notes")
		return nil, release, nil
	}
	chain := recommend.NewFallbackLLMClient(logger, providers...)
	logger.Info("recommendation providers configured", "count", chain.Len(), "primary", providers[0].Name)
	return recommend.NewLLMRecommender(chain, logger), release, nil
}

// BuildConversationService assembles the dialog orchestrator.
func BuildConversationService(rt *Runtime, recommender conversation.Recommender, cfg *appconfig.Config, m *metrics.ConciergeMetrics, logger *logging.Logger) (*conversation.Service, error) {
	if rt == nil || rt.Store == nil || rt.Properties == nil {
		return nil, errors.New("bootstrap: runtime with store and properties is required")
	}
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	return conversation.NewService(rt.Store, rt.Properties, recommender, logger,
		conversation.WithMetrics(m),
		conversation.WithMaxSegmentLength(cfg.SMSSegmentLength),
		conversation.WithDefaultTimezone(cfg.DefaultTimezone),
		conversation.WithPausedAfter(cfg.PausedAfter),
		conversation.WithRecommendationTimeout(cfg.RecommendationTimeout),
	), nil
}
