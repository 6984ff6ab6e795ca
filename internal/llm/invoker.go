package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"compass/internal/llmclient"
	"compass/internal/model"
)

const defaultClientCacheSize = 32

// Request is one resolved model call.
type Request struct {
	Prompt   string
	Model    model.Descriptor
	Provider model.Provider
	APIKey   string
}

// Invoker sends a prompt to the provider named by the request's descriptor
// and returns the raw model text. Clients are built lazily per
// (provider, model, credential) and reused; every failure comes back as a
// *ProviderError.
type Invoker struct {
	factories   map[model.Kind]llmclient.ClientFactory
	middlewares []Middleware
	observer    CallObserver
	logger      *log.Logger

	mu      sync.Mutex
	clients *lru.Cache[string, LLMClient]
}

type InvokerOption func(*Invoker)

// WithFactory registers the client constructor for a provider kind.
func WithFactory(kind model.Kind, f llmclient.ClientFactory) InvokerOption {
	return func(i *Invoker) { i.factories[kind] = f }
}

// WithMiddleware adds middlewares applied to every client, outermost first.
func WithMiddleware(mws ...Middleware) InvokerOption {
	return func(i *Invoker) { i.middlewares = append(i.middlewares, mws...) }
}

// WithObserver reports per-call latency and outcome.
func WithObserver(obs CallObserver) InvokerOption {
	return func(i *Invoker) { i.observer = obs }
}

// WithInvokerLogger sets the logger used for client lifecycle messages.
func WithInvokerLogger(l *log.Logger) InvokerOption {
	return func(i *Invoker) { i.logger = l }
}

// NewInvoker builds an Invoker with the Gemini and OpenAI-compatible
// factories registered. Options may replace them.
func NewInvoker(cacheSize int, opts ...InvokerOption) (*Invoker, error) {
	if cacheSize <= 0 {
		cacheSize = defaultClientCacheSize
	}
	inv := &Invoker{
		factories: map[model.Kind]llmclient.ClientFactory{
			model.KindGemini: llmclient.NewGemini,
			model.KindOpenAI: llmclient.NewOpenAI,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	cache, err := lru.NewWithEvict[string, LLMClient](cacheSize, func(key string, cli LLMClient) {
		if err := cli.Close(); err != nil {
			inv.logger.Printf("llm: close evicted client %s: %v", key, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("llm: client cache: %w", err)
	}
	inv.clients = cache
	return inv, nil
}

// Invoke performs exactly one model call. No retries happen here.
func (i *Invoker) Invoke(ctx context.Context, req Request) (string, error) {
	cli, err := i.client(ctx, req)
	if err != nil {
		return "", toProviderError(req, err)
	}
	text, err := cli.GenerateText(ctx, req.Prompt)
	if err != nil {
		return "", toProviderError(req, err)
	}
	return text, nil
}

// Close releases every cached client.
func (i *Invoker) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.clients.Purge()
	return nil
}

func (i *Invoker) client(ctx context.Context, req Request) (LLMClient, error) {
	key := cacheKey(req)
	i.mu.Lock()
	defer i.mu.Unlock()
	if cli, ok := i.clients.Get(key); ok {
		return cli, nil
	}
	factory, ok := i.factories[req.Provider.Kind]
	if !ok {
		return nil, fmt.Errorf("no client factory for provider kind %q", req.Provider.Kind)
	}
	d := req.Model
	base, err := factory(ctx, llmclient.Config{
		Model:           d.ModelID,
		BaseURL:         d.EndpointBaseURL,
		APIKey:          req.APIKey,
		Temperature:     d.Temperature,
		MaxOutputTokens: d.MaxOutputTokens,
		JSONMode:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	// The timeout wraps only the provider call: hook writes and rate-limit
	// waits do not spend the model's budget.
	mws := make([]Middleware, 0, len(i.middlewares)+3)
	mws = append(mws, i.middlewares...)
	mws = append(mws,
		RateLimit(d.RateLimit.RPS, d.RateLimit.Burst),
		WithLatency(i.observer, d.ProviderID, d.ModelID),
		WithTimeout(d.Timeout),
	)
	cli := Wrap(base, mws...)
	i.clients.Add(key, cli)
	return cli, nil
}

// cacheKey separates clients by credential without keeping the key itself.
func cacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.APIKey))
	return req.Model.Key() + "::" + hex.EncodeToString(sum[:6])
}

func toProviderError(req Request, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	out := &ProviderError{
		Provider: req.Model.ProviderID,
		Model:    req.Model.ModelID,
		Timeout:  errors.Is(err, context.DeadlineExceeded),
		Err:      err,
	}
	if se, ok := llmclient.AsStatusError(err); ok {
		out.StatusCode = se.StatusCode
		out.RetryAfter = se.RateLimit.RetryAfter()
	}
	if out.Provider == "" {
		out.Provider = strings.ToLower(req.Provider.ID)
	}
	return out
}
