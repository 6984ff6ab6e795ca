package model

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var embeddedTable []byte

var (
	ErrModelNotRegistered    = errors.New("model is not registered")
	ErrProviderNotRegistered = errors.New("model provider is not registered")
	ErrInvalidTable          = errors.New("invalid model registry")
)

type fileTable struct {
	Version string `yaml:"version"`
	Default struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"default"`
	Providers []fileProvider `yaml:"providers"`
}

type fileProvider struct {
	ID            string      `yaml:"id"`
	Kind          string      `yaml:"kind"`
	CredentialEnv string      `yaml:"credentialEnv"`
	BaseURL       string      `yaml:"baseURL"`
	Models        []fileModel `yaml:"models"`
}

type fileModel struct {
	ID              string        `yaml:"id"`
	DisplayName     string        `yaml:"displayName"`
	BaseURL         string        `yaml:"baseURL"`
	Temperature     *float64      `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
	Timeout         time.Duration `yaml:"timeout"`
	RateLimit       *RateLimit    `yaml:"rateLimit"`
	Description     string        `yaml:"description"`
}

// Registry is the static table of providers and model descriptors.
// It is built once by Load and never modified, so concurrent readers need
// no locking.
type Registry struct {
	version       string
	providers     map[string]Provider
	providerOrder []string
	models        map[string]Descriptor
	byProvider    map[string][]string
	defaultKey    string
}

// Option adjusts the table while it is being loaded.
type Option func(*fileTable)

// WithDefault replaces the table's default model. Empty values keep the
// table's own choice.
func WithDefault(provider, model string) Option {
	return func(t *fileTable) {
		if p := strings.TrimSpace(provider); p != "" {
			t.Default.Provider = p
		}
		if m := strings.TrimSpace(model); m != "" {
			t.Default.Model = m
		}
	}
}

// LoadDefault loads the table compiled into the binary.
func LoadDefault(opts ...Option) (*Registry, error) {
	return Load(embeddedTable, opts...)
}

// LoadFile loads a table from disk, e.g. MODEL_REGISTRY_FILE.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model registry: %w", err)
	}
	return Load(data, opts...)
}

// Load parses and validates a YAML registry table.
func Load(data []byte, opts ...Option) (*Registry, error) {
	var t fileTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for _, opt := range opts {
		opt(&t)
	}
	return build(t)
}

func build(t fileTable) (*Registry, error) {
	r := &Registry{
		version:    strings.TrimSpace(t.Version),
		providers:  map[string]Provider{},
		models:     map[string]Descriptor{},
		byProvider: map[string][]string{},
	}
	if r.version == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidTable)
	}
	for _, fp := range t.Providers {
		id := strings.ToLower(strings.TrimSpace(fp.ID))
		if id == "" {
			return nil, fmt.Errorf("%w: provider id is required", ErrInvalidTable)
		}
		if _, dup := r.providers[id]; dup {
			return nil, fmt.Errorf("%w: duplicate provider %q", ErrInvalidTable, id)
		}
		kind := Kind(strings.ToLower(strings.TrimSpace(fp.Kind)))
		switch kind {
		case KindGemini, KindOpenAI:
		default:
			return nil, fmt.Errorf("%w: provider %q has unknown kind %q", ErrInvalidTable, id, fp.Kind)
		}
		env := strings.TrimSpace(fp.CredentialEnv)
		if env == "" {
			return nil, fmt.Errorf("%w: provider %q has no credentialEnv", ErrInvalidTable, id)
		}
		r.providers[id] = Provider{
			ID:            id,
			Kind:          kind,
			CredentialEnv: env,
			BaseURL:       strings.TrimSpace(fp.BaseURL),
		}
		r.providerOrder = append(r.providerOrder, id)

		for _, fm := range fp.Models {
			d, err := descriptorFrom(id, r.providers[id], fm)
			if err != nil {
				return nil, err
			}
			k := d.Key()
			if _, dup := r.models[k]; dup {
				return nil, fmt.Errorf("%w: duplicate model %s", ErrInvalidTable, k)
			}
			r.models[k] = d
			r.byProvider[id] = append(r.byProvider[id], d.ModelID)
		}
	}
	if len(r.models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidTable)
	}

	k := keyFor(t.Default.Provider, t.Default.Model)
	if _, ok := r.models[k]; !ok {
		return nil, fmt.Errorf("%w: default %s: %w", ErrInvalidTable, k, ErrModelNotRegistered)
	}
	r.defaultKey = k
	return r, nil
}

func descriptorFrom(providerID string, p Provider, fm fileModel) (Descriptor, error) {
	id := strings.TrimSpace(fm.ID)
	if id == "" {
		return Descriptor{}, fmt.Errorf("%w: provider %q has a model without id", ErrInvalidTable, providerID)
	}
	temp := DefaultTemperature
	if fm.Temperature != nil {
		temp = *fm.Temperature
	}
	if math.IsNaN(temp) || temp < 0 || temp > 2 {
		return Descriptor{}, fmt.Errorf("%w: %s/%s temperature %v outside [0,2]", ErrInvalidTable, providerID, id, temp)
	}
	if fm.MaxOutputTokens < 0 {
		return Descriptor{}, fmt.Errorf("%w: %s/%s negative maxOutputTokens", ErrInvalidTable, providerID, id)
	}
	timeout := fm.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < 0 {
		return Descriptor{}, fmt.Errorf("%w: %s/%s negative timeout", ErrInvalidTable, providerID, id)
	}
	base := strings.TrimSpace(fm.BaseURL)
	if base == "" {
		base = p.BaseURL
	}
	name := strings.TrimSpace(fm.DisplayName)
	if name == "" {
		name = id
	}
	var rl RateLimit
	if fm.RateLimit != nil {
		if fm.RateLimit.RPS < 0 || fm.RateLimit.Burst < 0 {
			return Descriptor{}, fmt.Errorf("%w: %s/%s negative rate limit", ErrInvalidTable, providerID, id)
		}
		rl = *fm.RateLimit
	}
	return Descriptor{
		ModelID:         id,
		DisplayName:     name,
		ProviderID:      providerID,
		EndpointBaseURL: base,
		Temperature:     temp,
		MaxOutputTokens: fm.MaxOutputTokens,
		Description:     strings.TrimSpace(fm.Description),
		Timeout:         timeout,
		RateLimit:       rl,
	}, nil
}

// Version identifies the loaded table.
func (r *Registry) Version() string { return r.version }

// Default returns the descriptor used when a request names no model.
func (r *Registry) Default() Descriptor { return r.models[r.defaultKey] }

// Provider returns the provider entry for id.
func (r *Registry) Provider(id string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// Lookup finds a descriptor. It supports either a complete selection or a
// partial one:
//   - nothing        -> the default model
//   - provider only  -> the default if it belongs to provider, else the provider's first model
//   - model only     -> the model under the default provider, else under the first provider serving it
func (r *Registry) Lookup(provider, model string) (Descriptor, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	def := r.models[r.defaultKey]

	switch {
	case provider == "" && model == "":
		return def, nil
	case model == "":
		if _, ok := r.providers[provider]; !ok {
			return Descriptor{}, fmt.Errorf("%w: provider=%s", ErrProviderNotRegistered, provider)
		}
		if def.ProviderID == provider {
			return def, nil
		}
		ids := r.byProvider[provider]
		if len(ids) == 0 {
			return Descriptor{}, fmt.Errorf("%w: provider=%s has no models", ErrModelNotRegistered, provider)
		}
		return r.models[keyFor(provider, ids[0])], nil
	case provider == "":
		if d, ok := r.models[keyFor(def.ProviderID, model)]; ok {
			return d, nil
		}
		for _, p := range r.providerOrder {
			if d, ok := r.models[keyFor(p, model)]; ok {
				return d, nil
			}
		}
		return Descriptor{}, fmt.Errorf("%w: model=%s", ErrModelNotRegistered, model)
	}

	if d, ok := r.models[keyFor(provider, model)]; ok {
		return d, nil
	}
	return Descriptor{}, fmt.Errorf("%w: provider=%s model=%s", ErrModelNotRegistered, provider, model)
}

// Models lists every descriptor, grouped by provider in table order.
func (r *Registry) Models() []Descriptor {
	out := make([]Descriptor, 0, len(r.models))
	for _, p := range r.providerOrder {
		for _, id := range r.byProvider[p] {
			out = append(out, r.models[keyFor(p, id)])
		}
	}
	return out
}
