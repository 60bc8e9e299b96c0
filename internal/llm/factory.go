package llm

import (
	"context"
	"fmt"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/rs/zerolog"
)

// Factory builds per-session providers. Each quiz session brings its own
// API key, so providers are constructed on demand rather than at startup.
type Factory struct {
	cfg config.LLMConfig
	log zerolog.Logger
}

// NewFactory creates a Factory for the configured provider.
func NewFactory(cfg config.LLMConfig, log zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, log: log}
}

// New returns the provider chain for apiKey: primary model, then secondary
// model, each call logged.
func (f *Factory) New(ctx context.Context, apiKey string) (Provider, error) {
	primary, err := f.build(ctx, apiKey, f.cfg.PrimaryModel)
	if err != nil {
		return nil, err
	}
	primary = WithLogging(primary, f.log)

	if f.cfg.SecondaryModel == "" || f.cfg.SecondaryModel == f.cfg.PrimaryModel {
		return primary, nil
	}
	secondary, err := f.build(ctx, apiKey, f.cfg.SecondaryModel)
	if err != nil {
		return nil, err
	}
	return WithFallbackModel(primary, WithLogging(secondary, f.log)), nil
}

func (f *Factory) build(ctx context.Context, apiKey, model string) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch f.cfg.Provider {
	case "gemini":
		p, err = NewGeminiProvider(ctx, apiKey, model)
	case "openai":
		p, err = NewOpenAIProvider(apiKey, model, f.cfg.BaseURL)
	case "anthropic":
		p, err = NewAnthropicProvider(apiKey, model)
	case "mock":
		return NewNamedMockProvider(model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", f.cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", f.cfg.Provider, err)
	}
	return p, nil
}
