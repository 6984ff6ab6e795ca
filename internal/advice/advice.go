// Package advice turns a viewpoint profile and a scenario into structured
// advice: three analysis points, three action points and a narrative.
package advice

import (
	"context"
	"fmt"

	"compass/internal/pipeline"
	"compass/internal/profile"
)

// Phase tags advice model calls in logs, traces and metrics.
const Phase = "advice"

type Pipeline struct {
	runner *pipeline.Runner
}

func New(r *pipeline.Runner) *Pipeline {
	return &Pipeline{runner: r}
}

// GenerateAdvice performs at most one model call. Provider and schema
// failures come back as Failed and Degraded results; a returned error means
// the service is misconfigured (*llm.ConfigurationError) and no call was made.
func (p *Pipeline) GenerateAdvice(ctx context.Context, v profile.Viewpoint, scenario string, opts ...pipeline.Option) (Result, error) {
	text, err := Compose(v, scenario)
	if err != nil {
		return nil, fmt.Errorf("compose advice prompt: %w", err)
	}
	out, err := pipeline.Run[Payload](ctx, p.runner, Phase, text, opts...)
	if err != nil {
		return nil, err
	}
	return fromOutcome(out), nil
}
