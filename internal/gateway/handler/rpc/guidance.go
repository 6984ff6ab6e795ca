package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"connectrpc.com/connect"

	"compass/internal/advice"
	"compass/internal/classify"
	"compass/internal/llm"
	"compass/internal/model"
	"compass/internal/pipeline"
	"compass/internal/profile"
)

// RequestIDHeader carries the caller's correlation id in and out.
const RequestIDHeader = "X-Request-Id"

type GenerateAdviceRequest struct {
	// UserID selects a stored profile when Profile is absent.
	UserID   string             `json:"userId,omitempty"`
	Profile  *profile.Viewpoint `json:"profile,omitempty"`
	Scenario string             `json:"scenario"`
	Provider string             `json:"provider,omitempty"`
	Model    string             `json:"model,omitempty"`
}

type ClassifyViewpointRequest struct {
	Text     string `json:"text"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type ListModelsRequest struct{}

type ModelInfo struct {
	ProviderID      string  `json:"providerId"`
	ModelID         string  `json:"modelId"`
	DisplayName     string  `json:"displayName"`
	Description     string  `json:"description,omitempty"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	IsDefault       bool    `json:"isDefault"`
}

type ListModelsResponse struct {
	Version string      `json:"version"`
	Models  []ModelInfo `json:"models"`
}

type GuidanceHandler struct {
	advice   *advice.Pipeline
	classify *classify.Pipeline
	registry *model.Registry
	profiles profile.Store
	logger   *log.Logger
}

var _ GuidanceServiceHandler = (*GuidanceHandler)(nil)

func NewGuidanceHandler(a *advice.Pipeline, c *classify.Pipeline, reg *model.Registry, profiles profile.Store, logger *log.Logger) *GuidanceHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &GuidanceHandler{advice: a, classify: c, registry: reg, profiles: profiles, logger: logger}
}

func (h *GuidanceHandler) GenerateAdvice(ctx context.Context, req *connect.Request[GenerateAdviceRequest]) (*connect.Response[advice.Envelope], error) {
	in := req.Msg
	var v profile.Viewpoint
	switch {
	case in.Profile != nil:
		v = *in.Profile
	case strings.TrimSpace(in.UserID) != "":
		if h.profiles == nil {
			return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("profile store is not configured"))
		}
		got, err := h.profiles.Get(ctx, in.UserID)
		if errors.Is(err, profile.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no profile for user %q", strings.TrimSpace(in.UserID)))
		}
		if err != nil {
			h.logger.Printf("rpc: profile lookup user=%s: %v", in.UserID, err)
			return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("profile store unavailable"))
		}
		v = got
	}

	opts := pipelineOptions(req.Header().Get(RequestIDHeader), in.Provider, in.Model)
	res, err := h.advice.GenerateAdvice(ctx, v, in.Scenario, opts...)
	if err != nil {
		return nil, h.toConnectError(advice.Phase, err)
	}
	env := advice.ToEnvelope(res)
	out := connect.NewResponse(&env)
	out.Header().Set(RequestIDHeader, env.RequestID)
	return out, nil
}

func (h *GuidanceHandler) ClassifyViewpoint(ctx context.Context, req *connect.Request[ClassifyViewpointRequest]) (*connect.Response[classify.Envelope], error) {
	in := req.Msg
	opts := pipelineOptions(req.Header().Get(RequestIDHeader), in.Provider, in.Model)
	res, err := h.classify.ClassifyViewpoint(ctx, in.Text, opts...)
	if err != nil {
		return nil, h.toConnectError(classify.Phase, err)
	}
	env := classify.ToEnvelope(res)
	out := connect.NewResponse(&env)
	out.Header().Set(RequestIDHeader, env.RequestID)
	return out, nil
}

func (h *GuidanceHandler) ListModels(_ context.Context, _ *connect.Request[ListModelsRequest]) (*connect.Response[ListModelsResponse], error) {
	def := h.registry.Default().Key()
	descs := h.registry.Models()
	out := &ListModelsResponse{
		Version: h.registry.Version(),
		Models:  make([]ModelInfo, 0, len(descs)),
	}
	for _, d := range descs {
		out.Models = append(out.Models, ModelInfo{
			ProviderID:      d.ProviderID,
			ModelID:         d.ModelID,
			DisplayName:     d.DisplayName,
			Description:     d.Description,
			Temperature:     d.Temperature,
			MaxOutputTokens: d.MaxOutputTokens,
			IsDefault:       d.Key() == def,
		})
	}
	return connect.NewResponse(out), nil
}

func pipelineOptions(requestID, provider, modelID string) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithModel(provider, modelID)}
	if id := strings.TrimSpace(requestID); validRequestID(id) {
		opts = append(opts, pipeline.WithRequestID(id))
	}
	return opts
}

// validRequestID accepts short ids made of letters, digits, '-', '_' and '.',
// since ids become trace object names.
func validRequestID(id string) bool {
	if id == "" || len(id) > 64 || strings.Trim(id, ".") == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// toConnectError maps pipeline errors. Configuration errors are an
// operational alarm, not a per-user failure.
func (h *GuidanceHandler) toConnectError(phase string, err error) error {
	var ce *llm.ConfigurationError
	if errors.As(err, &ce) {
		h.logger.Printf("ALARM rpc: %s: %v", phase, err)
		return connect.NewError(connect.CodeFailedPrecondition, err)
	}
	h.logger.Printf("rpc: %s: %v", phase, err)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%s failed", phase))
}
