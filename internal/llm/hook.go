package llm

import "context"

// PromptHook observes each model call. Implementations must be safe for
// concurrent use and must not block for long; errors are theirs to swallow.
type PromptHook interface {
	Before(ctx context.Context, phase, prompt string)
	After(ctx context.Context, phase, raw string, err error)
}

// Hooks fans out to several hooks in order.
type Hooks []PromptHook

func (hs Hooks) Before(ctx context.Context, phase, prompt string) {
	for _, h := range hs {
		if h != nil {
			h.Before(ctx, phase, prompt)
		}
	}
}

func (hs Hooks) After(ctx context.Context, phase, raw string, err error) {
	for _, h := range hs {
		if h != nil {
			h.After(ctx, phase, raw, err)
		}
	}
}

type ctxKeyPhase struct{}
type ctxKeyRequestID struct{}

// WithPhase tags the context with the pipeline making the call
// ("advice", "classification").
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// WithRequestID tags the context with the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// RequestIDFrom returns the request id stored in the context, or "".
func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRequestID{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
