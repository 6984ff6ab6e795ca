package server

import (
	"log"
	"net/http"

	"compass/internal/gateway/handler/rpc"
	"compass/internal/gateway/middleware"
)

// NewMux mounts the guidance service, /metrics and /healthz.
func NewMux(guidance *rpc.GuidanceHandler, metricsHandler http.Handler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(rpc.NewGuidanceServiceHandler(guidance))

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return middleware.CORS(middleware.AccessLog(logger, mux))
}
