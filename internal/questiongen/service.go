package questiongen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/llm"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/rs/zerolog"
)

// ProviderFactory builds a provider for a caller's API key.
type ProviderFactory interface {
	New(ctx context.Context, apiKey string) (llm.Provider, error)
}

// ProviderFactoryFunc adapts a function to ProviderFactory.
type ProviderFactoryFunc func(ctx context.Context, apiKey string) (llm.Provider, error)

func (f ProviderFactoryFunc) New(ctx context.Context, apiKey string) (llm.Provider, error) {
	return f(ctx, apiKey)
}

// ErrNoAPIKey is reported (and recovered from) when a session has no key.
var ErrNoAPIKey = errors.New("no API key for session")

// Generated is a draft together with where it came from.
type Generated struct {
	Draft  Draft
	Source model.QuestionSource
	// Cause is the generation error that triggered the bank, if any.
	Cause error
}

// Service generates questions with a deadline and never fails: any
// generation error falls back to the bank.
type Service struct {
	factory   ProviderFactory
	generator *LLMGenerator
	bank      *Bank
	timeout   time.Duration
	intn      IntN
	log       zerolog.Logger
}

// NewService creates a Service. A zero timeout means 30 seconds.
func NewService(factory ProviderFactory, generator *LLMGenerator, bank *Bank, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		factory:   factory,
		generator: generator,
		bank:      bank,
		timeout:   timeout,
		intn:      rand.IntN,
		log:       log.With().Str("component", "questiongen").Logger(),
	}
}

// WithRand replaces the difficulty source; tests use it for determinism.
func (s *Service) WithRand(intn IntN) *Service {
	s.intn = intn
	return s
}

// Generate produces question number of total for a session whose provider
// key is apiKey.
func (s *Service) Generate(ctx context.Context, apiKey string, number, total int) Generated {
	plan := PlanFor(number, s.intn)
	log := s.log.With().
		Int("question_number", number).
		Str("category", plan.Category).
		Str("type", string(plan.Type)).
		Int("difficulty", plan.Difficulty).
		Logger()

	draft, err := s.generate(ctx, apiKey, plan, number, total)
	if err == nil {
		log.Info().Msg("Question generated")
		return Generated{Draft: *draft, Source: model.SourceGenerated}
	}

	log.Warn().Err(err).Msg("Question generation failed, using fallback")
	return Generated{Draft: s.bank.Select(plan, number), Source: model.SourceFallback, Cause: err}
}

func (s *Service) generate(ctx context.Context, apiKey string, plan Plan, number, total int) (*Draft, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	provider, err := s.factory.New(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}
	return s.generator.Generate(ctx, provider, plan, number, total)
}
