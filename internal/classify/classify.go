// Package classify weighs a free-text passage across the three viewpoint
// categories.
package classify

import (
	"context"
	"fmt"

	"compass/internal/pipeline"
)

// Phase tags classification model calls in logs, traces and metrics.
const Phase = "classification"

type Pipeline struct {
	runner *pipeline.Runner
}

func New(r *pipeline.Runner) *Pipeline {
	return &Pipeline{runner: r}
}

// ClassifyViewpoint performs at most one model call. A returned error means
// the service is misconfigured (*llm.ConfigurationError) and no call was made.
func (p *Pipeline) ClassifyViewpoint(ctx context.Context, text string, opts ...pipeline.Option) (Result, error) {
	prompt, err := Compose(text)
	if err != nil {
		return nil, fmt.Errorf("compose classification prompt: %w", err)
	}
	out, err := pipeline.Run[Payload](ctx, p.runner, Phase, prompt, opts...)
	if err != nil {
		return nil, err
	}
	return fromOutcome(out), nil
}
