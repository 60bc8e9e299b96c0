package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackProvider tries its primary model once and, on failure, its
// secondary model once. There is no further retry.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
}

// WithFallbackModel chains primary and secondary. A nil secondary returns
// primary unchanged.
func WithFallbackModel(primary, secondary Provider) Provider {
	if secondary == nil {
		return primary
	}
	return &FallbackProvider{primary: primary, secondary: secondary}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := f.primary.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}
	// A cancelled or expired context fails the secondary too.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, err
	}

	resp, err2 := f.secondary.Generate(ctx, req)
	if err2 == nil {
		return resp, nil
	}
	return nil, errors.Join(
		fmt.Errorf("%s: %w", f.primary.ModelID(), err),
		fmt.Errorf("%s: %w", f.secondary.ModelID(), err2),
	)
}

func (f *FallbackProvider) ModelID() string {
	return f.primary.ModelID()
}
