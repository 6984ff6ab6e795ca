package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"compass/internal/advice"
	"compass/internal/classify"
)

const ServiceName = "compass.v1.GuidanceService"

const (
	GenerateAdviceProcedure    = "/" + ServiceName + "/GenerateAdvice"
	ClassifyViewpointProcedure = "/" + ServiceName + "/ClassifyViewpoint"
	ListModelsProcedure        = "/" + ServiceName + "/ListModels"
)

// GuidanceServiceHandler is the server side of GuidanceService.
type GuidanceServiceHandler interface {
	GenerateAdvice(context.Context, *connect.Request[GenerateAdviceRequest]) (*connect.Response[advice.Envelope], error)
	ClassifyViewpoint(context.Context, *connect.Request[ClassifyViewpointRequest]) (*connect.Response[classify.Envelope], error)
	ListModels(context.Context, *connect.Request[ListModelsRequest]) (*connect.Response[ListModelsResponse], error)
}

// NewGuidanceServiceHandler returns the mount path and handler for svc.
func NewGuidanceServiceHandler(svc GuidanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	generateAdvice := connect.NewUnaryHandler(GenerateAdviceProcedure, svc.GenerateAdvice, opts...)
	classifyViewpoint := connect.NewUnaryHandler(ClassifyViewpointProcedure, svc.ClassifyViewpoint, opts...)
	listModels := connect.NewUnaryHandler(ListModelsProcedure, svc.ListModels, opts...)
	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GenerateAdviceProcedure:
			generateAdvice.ServeHTTP(w, r)
		case ClassifyViewpointProcedure:
			classifyViewpoint.ServeHTTP(w, r)
		case ListModelsProcedure:
			listModels.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GuidanceServiceClient calls GuidanceService over Connect with JSON.
type GuidanceServiceClient struct {
	generateAdvice    *connect.Client[GenerateAdviceRequest, advice.Envelope]
	classifyViewpoint *connect.Client[ClassifyViewpointRequest, classify.Envelope]
	listModels        *connect.Client[ListModelsRequest, ListModelsResponse]
}

func NewGuidanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GuidanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &GuidanceServiceClient{
		generateAdvice:    connect.NewClient[GenerateAdviceRequest, advice.Envelope](httpClient, baseURL+GenerateAdviceProcedure, opts...),
		classifyViewpoint: connect.NewClient[ClassifyViewpointRequest, classify.Envelope](httpClient, baseURL+ClassifyViewpointProcedure, opts...),
		listModels:        connect.NewClient[ListModelsRequest, ListModelsResponse](httpClient, baseURL+ListModelsProcedure, opts...),
	}
}

func (c *GuidanceServiceClient) GenerateAdvice(ctx context.Context, req *connect.Request[GenerateAdviceRequest]) (*connect.Response[advice.Envelope], error) {
	return c.generateAdvice.CallUnary(ctx, req)
}

func (c *GuidanceServiceClient) ClassifyViewpoint(ctx context.Context, req *connect.Request[ClassifyViewpointRequest]) (*connect.Response[classify.Envelope], error) {
	return c.classifyViewpoint.CallUnary(ctx, req)
}

func (c *GuidanceServiceClient) ListModels(ctx context.Context, req *connect.Request[ListModelsRequest]) (*connect.Response[ListModelsResponse], error) {
	return c.listModels.CallUnary(ctx, req)
}
