// Package trace archives each model prompt and raw reply per request id.
// Archiving is best-effort: failures are logged and counted, never returned.
package trace

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"compass/internal/llm"
	"compass/internal/metrics"
)

const writeTimeout = 10 * time.Second

// Store persists one named object under a request id.
type Store interface {
	Put(ctx context.Context, requestID, name string, content []byte) error
}

// Hook implements llm.PromptHook on top of a Store.
type Hook struct {
	store   Store
	sink    string
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewHook(store Store, sink string, logger *log.Logger, m *metrics.Metrics) *Hook {
	if logger == nil {
		logger = log.Default()
	}
	return &Hook{store: store, sink: sink, logger: logger, metrics: m, now: time.Now}
}

// Before writes <request>/<phase>.prompt.txt.
func (h *Hook) Before(ctx context.Context, phase, prompt string) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "==== %s ====\n", h.now().UTC().Format(time.RFC3339))
	buf.WriteString(prompt)
	h.put(ctx, phase+".prompt.txt", buf.Bytes())
}

// After writes <request>/<phase>.response.txt with the raw reply or the error.
func (h *Hook) After(ctx context.Context, phase, raw string, err error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "==== %s ====\n", h.now().UTC().Format(time.RFC3339))
	if err != nil {
		buf.WriteString("ERROR: " + err.Error() + "\n")
	} else {
		buf.WriteString(raw)
	}
	h.put(ctx, phase+".response.txt", buf.Bytes())
}

func (h *Hook) put(ctx context.Context, name string, content []byte) {
	id := strings.TrimSpace(llm.RequestIDFrom(ctx))
	if id == "" {
		id = "unknown"
	}
	// The trace outlives a caller that hung up mid-request.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := h.store.Put(wctx, id, name, content); err != nil {
		h.metrics.IncTraceError(h.sink)
		h.logger.Printf("trace: %s write %s/%s: %v", h.sink, id, name, err)
	}
}

// Config selects a sink. Sink is "", "off", "dir" or "s3".
type Config struct {
	Sink string
	Dir  string
	S3   S3Config
}

// New builds the configured hook, or nil when tracing is off.
func New(cfg Config, logger *log.Logger, m *metrics.Metrics) (llm.PromptHook, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", "off", "none":
		return nil, nil
	case "dir":
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			return nil, fmt.Errorf("trace: dir sink needs a directory")
		}
		return NewHook(&DirStore{Dir: dir}, "dir", logger, m), nil
	case "s3":
		s, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		return NewHook(s, "s3", logger, m), nil
	default:
		return nil, fmt.Errorf("trace: unknown sink %q", cfg.Sink)
	}
}
