package llmclient

import (
	"context"
	"errors"
	"fmt"
)

// LLMClient sends one prompt to a provider and returns the model's raw text.
type LLMClient interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Config is everything a provider client needs to serve one model.
type Config struct {
	Model           string
	BaseURL         string
	APIKey          string
	Temperature     float64
	MaxOutputTokens int
	// JSONMode asks the provider for a JSON object response when supported.
	JSONMode bool
}

// ClientFactory builds a client for a model. Factories are keyed by provider kind.
type ClientFactory func(ctx context.Context, cfg Config) (LLMClient, error)

var ErrEmptyModel = errors.New("llmclient: model is required")

// StatusError is returned when a provider answers with a non-2xx HTTP status.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
	RateLimit  RateLimitHeaders
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %s: %s", e.Provider, e.Status, e.Body)
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
