package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LoggingProvider logs latency, token usage and outcome of every call.
type LoggingProvider struct {
	inner Provider
	log   zerolog.Logger
}

// WithLogging wraps p so each Generate call emits one log line.
func WithLogging(p Provider, log zerolog.Logger) Provider {
	return &LoggingProvider{
		inner: p,
		log:   log.With().Str("component", "llm").Logger(),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	evt := l.log.Info()
	if err != nil {
		evt = l.log.Warn().Err(err)
	}
	evt = evt.
		Str("model", l.inner.ModelID()).
		Str("purpose", PurposeFrom(ctx)).
		Dur("latency", time.Since(start))
	if resp != nil {
		evt = evt.
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens)
	}
	evt.Msg("LLM request")

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
