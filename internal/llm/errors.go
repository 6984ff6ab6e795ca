package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"compass/internal/llmclient"
)

var ErrMissingCredential = errors.New("credential is not set")

// ConfigurationError reports a deployment problem: missing credentials or a
// model/provider that the registry does not know. It is raised before any
// model call and is never converted into a degraded response.
type ConfigurationError struct {
	Provider string
	Model    string
	// Setting names the environment variable or registry key at fault.
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Provider != "" {
		fmt.Fprintf(&b, " provider=%s", e.Provider)
	}
	if e.Model != "" {
		fmt.Fprintf(&b, " model=%s", e.Model)
	}
	if e.Setting != "" {
		fmt.Fprintf(&b, " setting=%s", e.Setting)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderError is any failure of the model call itself: transport, HTTP
// status, timeout or a malformed provider envelope.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	// RetryAfter is the provider's backoff hint, zero when absent.
	RetryAfter time.Duration
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether sending the same request again may succeed.
func (e *ProviderError) Retryable() bool {
	var pe *llmclient.PermanentError
	if errors.As(e.Err, &pe) {
		return false
	}
	if e.Timeout {
		return true
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

const maxDiagnosticLen = 200

// Diagnostic is a short single-line description safe to show to a user.
func (e *ProviderError) Diagnostic() string {
	var msg string
	var te *TimeoutError
	switch {
	case errors.As(e.Err, &te):
		msg = fmt.Sprintf("%s request timed out after %s", e.Provider, te.After)
	case e.Timeout:
		msg = fmt.Sprintf("%s request timed out", e.Provider)
	case e.StatusCode == http.StatusTooManyRequests:
		msg = fmt.Sprintf("%s rate limit reached", e.Provider)
	case e.StatusCode != 0:
		msg = fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	default:
		msg = fmt.Sprintf("%s request error: %v", e.Provider, e.Err)
	}
	msg = strings.Join(strings.Fields(msg), " ")
	if len(msg) > maxDiagnosticLen {
		msg = msg[:maxDiagnosticLen] + "..."
	}
	return msg
}

// TimeoutError is returned by WithTimeout when the per-model bound expires.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s: %v", e.After, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
