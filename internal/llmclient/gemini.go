package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (timeouts, rate limiting, logging, hooks) are applied via middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
	gen   *genai.GenerateContentConfig
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, ErrEmptyModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	gen := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxOutputTokens > 0 {
		gen.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	if cfg.JSONMode {
		gen.ResponseMIMEType = "application/json"
	}
	return &GeminiClient{cli: cli, model: model, gen: gen}, nil
}

// NewGemini adapts NewGeminiClient to ClientFactory.
func NewGemini(ctx context.Context, cfg Config) (LLMClient, error) {
	return NewGeminiClient(ctx, cfg)
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateText sends the prompt as a single user turn.
// A blocked prompt is a permanent error. Otherwise a response without
// candidates yields "" and no error; deciding whether that is acceptable
// belongs to the parser.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.gen)
	if err != nil {
		if se, ok := AsStatusError(err); ok {
			return "", se
		}
		return "", err
	}
	if resp == nil {
		return "", errors.New("gemini: nil response")
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && len(resp.Candidates) == 0 {
		msg := strings.TrimSpace(fb.BlockReasonMessage)
		if msg == "" {
			msg = "no candidates returned"
		}
		return "", NewPermanentError(fmt.Errorf("gemini: prompt blocked (%s): %s", fb.BlockReason, msg))
	}
	return resp.Text(), nil
}

// AsStatusError finds the HTTP status in err. It understands *StatusError and
// the genai SDK's APIError, which carries the status code and, for quota
// errors, a google.rpc.RetryInfo detail.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var p *genai.APIError
		if !errors.As(err, &p) || p == nil {
			return nil, false
		}
		apiErr = *p
	}
	if apiErr.Code == 0 {
		return nil, false
	}
	return &StatusError{
		Provider:   "gemini",
		StatusCode: apiErr.Code,
		Status:     firstNonBlank(apiErr.Status, fmt.Sprint(apiErr.Code)),
		Body:       apiErr.Message,
		RateLimit: RateLimitHeaders{
			RetryAfterSeconds: retryDelaySeconds(apiErr.Details),
			RemainingRequests: -1,
			RemainingTokens:   -1,
		},
	}, true
}

// retryDelaySeconds reads {"@type": ".../google.rpc.RetryInfo", "retryDelay": "4s"}.
func retryDelaySeconds(details []map[string]any) int {
	for _, d := range details {
		typ, _ := d["@type"].(string)
		if !strings.HasSuffix(typ, "google.rpc.RetryInfo") {
			continue
		}
		raw, _ := d["retryDelay"].(string)
		dur, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil || dur <= 0 {
			continue
		}
		secs := int(dur / time.Second)
		if dur%time.Second != 0 {
			secs++
		}
		return secs
	}
	return 0
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
