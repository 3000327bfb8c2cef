package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// Provider names an LLM client for logging.
type Provider struct {
	Name   string
	Client LLMClient
}

// FallbackLLMClient tries providers in order and returns the first success.
type FallbackLLMClient struct {
	providers []Provider
	logger    *logging.Logger
}

// NewFallbackLLMClient builds a chain from the non-nil providers.
func NewFallbackLLMClient(logger *logging.Logger, providers ...Provider) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	chain := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Client != nil {
			chain = append(chain, p)
		}
	}
	return &FallbackLLMClient{providers: chain, logger: logger}
}

// Len reports how many providers are configured.
func (c *FallbackLLMClient) Len() int { return len(c.providers) }

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(c.providers) == 0 {
		return LLMResponse{}, errors.New("recommend: no llm providers configured")
	}
	var errs []error
	for i, p := range c.providers {
		resp, err := p.Client.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("llm fallback provider succeeded", "provider", p.Name, "attempt", i+1)
			}
			return resp, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
		c.logger.Warn("llm provider failed",
			"provider", p.Name,
			"error", err.Error(),
			"remaining", len(c.providers)-i-1,
		)
		if ctx.Err() != nil {
			break
		}
	}
	return LLMResponse{}, errors.Join(errs...)
}
