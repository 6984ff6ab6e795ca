// Package pipeline runs one prompt through model resolution, invocation and
// parsing, and reports which of the three outcomes happened.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"compass/internal/llm"
	"compass/internal/metrics"
	"compass/internal/model"
	"compass/internal/structured"
)

// Invoker performs a single model call.
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Registry resolves model selections. *model.Registry implements it.
type Registry interface {
	Lookup(provider, model string) (model.Descriptor, error)
	Provider(id string) (model.Provider, bool)
}

// Kind tags an Outcome.
type Kind int

const (
	Structured Kind = iota + 1
	Degraded
	Failed
)

func (k Kind) String() string {
	switch k {
	case Structured:
		return "structured"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ModelUsed is the descriptor subset reported back to callers.
type ModelUsed struct {
	ModelID     string `json:"modelId"`
	DisplayName string `json:"displayName"`
	ProviderID  string `json:"providerId"`
}

func modelUsed(d model.Descriptor) ModelUsed {
	return ModelUsed{ModelID: d.ModelID, DisplayName: d.DisplayName, ProviderID: d.ProviderID}
}

// Outcome is the parser/assembler result before flavor-specific mapping.
//   - Structured: Value is set.
//   - Degraded: Raw holds the model text (possibly blank), Diagnostic the parse failure.
//   - Failed: Diagnostic holds a short user-safe description of the provider failure.
type Outcome[T any] struct {
	Kind       Kind
	Value      T
	Raw        string
	Diagnostic string
	Model      ModelUsed
	RequestID  string
	At         time.Time
}

// Runner holds the injected collaborators shared by every pipeline.
type Runner struct {
	Registry    Registry
	Invoker     Invoker
	Credentials llm.CredentialSource
	Metrics     *metrics.Metrics
	Logger      *log.Logger
	Now         func() time.Time
}

type options struct {
	provider  string
	model     string
	requestID string
}

// Option selects per-request settings.
type Option func(*options)

// WithModel picks the provider/model for this request. Empty values fall
// back to the registry default.
func WithModel(provider, model string) Option {
	return func(o *options) {
		o.provider = provider
		o.model = model
	}
}

// WithRequestID sets the correlation id; one is generated otherwise.
func WithRequestID(id string) Option {
	return func(o *options) { o.requestID = strings.TrimSpace(id) }
}

// Run sends promptText to the selected model and parses the reply into T.
// The only error it returns is a *llm.ConfigurationError, raised before any
// model call; every other failure is reported through Outcome.Kind.
func Run[T any](ctx context.Context, r *Runner, phase, promptText string, opts ...Option) (Outcome[T], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.requestID == "" {
		o.requestID = uuid.NewString()
	}
	logger := r.logger()

	desc, prov, err := r.resolve(o.provider, o.model)
	if err == nil {
		var key string
		key, err = llm.ResolveCredential(r.Credentials, prov, desc)
		if err == nil {
			return invoke[T](ctx, r, phase, promptText, o.requestID, llm.Request{
				Prompt:   promptText,
				Model:    desc,
				Provider: prov,
				APIKey:   key,
			})
		}
	}
	r.Metrics.IncOutcome(phase, "config_error")
	logger.Printf("%s: configuration error request=%s: %v", phase, o.requestID, err)
	return Outcome[T]{}, err
}

func invoke[T any](ctx context.Context, r *Runner, phase, promptText, requestID string, req llm.Request) (Outcome[T], error) {
	logger := r.logger()
	out := Outcome[T]{
		Model:     modelUsed(req.Model),
		RequestID: requestID,
	}
	ctx = llm.WithRequestID(llm.WithPhase(ctx, phase), requestID)

	raw, err := r.Invoker.Invoke(ctx, req)
	out.At = r.now()
	if err != nil {
		out.Kind = Failed
		out.Diagnostic = diagnostic(err)
		logger.Printf("%s: provider failure request=%s model=%s: %v", phase, requestID, req.Model.Key(), err)
		r.Metrics.IncOutcome(phase, Failed.String())
		return out, nil
	}

	v, err := structured.Parse[T](raw)
	if err != nil {
		out.Kind = Degraded
		out.Raw = raw
		out.Diagnostic = err.Error()
		logger.Printf("%s: degraded request=%s model=%s raw_bytes=%d: %v", phase, requestID, req.Model.Key(), len(raw), err)
		r.Metrics.IncOutcome(phase, Degraded.String())
		return out, nil
	}
	out.Kind = Structured
	out.Value = v
	r.Metrics.IncOutcome(phase, Structured.String())
	return out, nil
}

func (r *Runner) resolve(provider, modelID string) (model.Descriptor, model.Provider, error) {
	if r.Registry == nil {
		return model.Descriptor{}, model.Provider{}, &llm.ConfigurationError{Setting: "model registry", Err: errors.New("not configured")}
	}
	desc, err := r.Registry.Lookup(provider, modelID)
	if err != nil {
		return model.Descriptor{}, model.Provider{}, &llm.ConfigurationError{
			Provider: provider,
			Model:    modelID,
			Setting:  "model",
			Err:      err,
		}
	}
	prov, ok := r.Registry.Provider(desc.ProviderID)
	if !ok {
		return model.Descriptor{}, model.Provider{}, &llm.ConfigurationError{
			Provider: desc.ProviderID,
			Model:    desc.ModelID,
			Setting:  "provider",
			Err:      model.ErrProviderNotRegistered,
		}
	}
	return desc, prov, nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

const maxDiagnosticLen = 200

func diagnostic(err error) string {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return pe.Diagnostic()
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	if len(msg) > maxDiagnosticLen {
		msg = msg[:maxDiagnosticLen] + "..."
	}
	return msg
}
