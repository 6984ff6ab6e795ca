package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"compass/internal/llmclient"
)

type LLMClient = llmclient.LLMClient

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (timeouts, rate limiting, logging, hooks, metrics).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// -------- Timeout --------

// WithTimeout bounds each call. Expiry is reported as a *TimeoutError that
// wraps context.DeadlineExceeded. d <= 0 disables the bound.
func WithTimeout(d time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next LLMClient
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) GenerateText(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	text, err := t.next.GenerateText(cctx, prompt)
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", &TimeoutError{After: t.d, Err: context.DeadlineExceeded}
	}
	return text, err
}

// -------- Rate Limiting --------

// RateLimit limits request rate using rpsLimiter.
// If rps <= 0, the limiter is disabled and next is returned unchanged.
func RateLimit(rps float64, burst int) Middleware {
	return func(next LLMClient) LLMClient {
		rl := newRPSLimiter(rps, burst)
		if rl == nil {
			return next
		}
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt)
}

// -------- Logging & Hooks --------

// WithLogging logs request size and errors. Provide a custom logger or nil
// to use log.Default(). Prompts and responses are never logged.
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	l.log.Printf("LLM request (%s) %s req=%s: %d bytes", PhaseFrom(ctx), l.next.Name(), RequestIDFrom(ctx), len(prompt))
	text, err := l.next.GenerateText(ctx, prompt)
	if err != nil {
		l.log.Printf("LLM error (%s) %s req=%s after %s: %v", PhaseFrom(ctx), l.next.Name(), RequestIDFrom(ctx), time.Since(start).Round(time.Millisecond), err)
	}
	return text, err
}

// WithHooks calls hook.Before/After around GenerateText. A nil hook makes
// the middleware a no-op.
func WithHooks(hook PromptHook) Middleware {
	return func(next LLMClient) LLMClient {
		if hook == nil {
			return next
		}
		return &hooked{next: next, hook: hook}
	}
}

type hooked struct {
	next LLMClient
	hook PromptHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) GenerateText(ctx context.Context, prompt string) (string, error) {
	phase := PhaseFrom(ctx)
	h.hook.Before(ctx, phase, prompt)
	text, err := h.next.GenerateText(ctx, prompt)
	h.hook.After(ctx, phase, text, err)
	return text, err
}

// -------- Metrics --------

// CallObserver receives one observation per model call.
type CallObserver interface {
	ObserveCall(provider, model, outcome string, d time.Duration)
}

const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// WithLatency reports call duration and outcome to obs under the given labels.
func WithLatency(obs CallObserver, provider, model string) Middleware {
	return func(next LLMClient) LLMClient {
		if obs == nil {
			return next
		}
		return &observed{next: next, obs: obs, provider: provider, model: model}
	}
}

type observed struct {
	next            LLMClient
	obs             CallObserver
	provider, model string
}

func (o *observed) Name() string { return o.next.Name() }
func (o *observed) Close() error { return o.next.Close() }
func (o *observed) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := o.next.GenerateText(ctx, prompt)
	outcome := OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeTimeout
	default:
		outcome = OutcomeError
	}
	o.obs.ObserveCall(o.provider, o.model, outcome, time.Since(start))
	return text, err
}
