package model

import (
	"strings"
	"time"
)

// Kind selects the client implementation used for a provider.
type Kind string

const (
	KindGemini Kind = "gemini"
	KindOpenAI Kind = "openai"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
)

// RateLimit optionally throttles calls to a model, per process.
// The zero value disables throttling.
type RateLimit struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// Descriptor identifies which language-model endpoint and parameters a
// request uses. Values are copied out of the Registry and never shared.
type Descriptor struct {
	ModelID         string        `json:"modelId"`
	DisplayName     string        `json:"displayName"`
	ProviderID      string        `json:"providerId"`
	EndpointBaseURL string        `json:"endpointBaseUrl,omitempty"`
	Temperature     float64       `json:"temperature"`
	MaxOutputTokens int           `json:"maxOutputTokens"`
	Description     string        `json:"description,omitempty"`
	Timeout         time.Duration `json:"-"`
	RateLimit       RateLimit     `json:"-"`
}

// Key is the registry key of the descriptor.
func (d Descriptor) Key() string { return keyFor(d.ProviderID, d.ModelID) }

// Provider groups models served by the same API and credential.
type Provider struct {
	ID            string
	Kind          Kind
	CredentialEnv string
	BaseURL       string
}

func keyFor(provider, model string) string {
	// Accept env/CLI style inputs with accidental whitespace and mixed casing:
	// e.g. " GEMINI " + " gemini-2.5-pro " -> "gemini::gemini-2.5-pro".
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	return provider + "::" + model
}
