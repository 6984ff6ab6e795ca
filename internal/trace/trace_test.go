package trace

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/llm"
	"compass/internal/metrics"
)

func traceCtx(id string) context.Context {
	return llm.WithRequestID(llm.WithPhase(context.Background(), "advice"), id)
}

func TestHook_DirStoreWritesPromptAndResponse(t *testing.T) {
	dir := t.TempDir()
	h := NewHook(&DirStore{Dir: dir}, "dir", nil, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	ctx := traceCtx("req-42")
	h.Before(ctx, "advice", "the prompt")
	h.After(ctx, "advice", `{"a":1}`, nil)

	p, err := os.ReadFile(filepath.Join(dir, "req-42", "advice.prompt.txt"))
	require.NoError(t, err)
	assert.Equal(t, "==== 2025-06-01T00:00:00Z ====\nthe prompt", string(p))

	r, err := os.ReadFile(filepath.Join(dir, "req-42", "advice.response.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(r), `{"a":1}`))
}

func TestHook_RecordsErrorResponse(t *testing.T) {
	dir := t.TempDir()
	h := NewHook(&DirStore{Dir: dir}, "dir", nil, nil)
	h.After(traceCtx("r1"), "classification", "", errors.New("provider down"))

	r, err := os.ReadFile(filepath.Join(dir, "r1", "classification.response.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(r), "ERROR: provider down")
}

type failingStore struct {
	mu    sync.Mutex
	calls int
	ctxOK bool
}

func (f *failingStore) Put(ctx context.Context, _, _ string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ctxOK = ctx.Err() == nil
	return errors.New("bucket gone")
}

func TestHook_FailuresAreLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	store := &failingStore{}
	m := metrics.MustNew(prometheus.NewRegistry())
	h := NewHook(store, "s3", log.New(&buf, "", 0), m)

	ctx, cancel := context.WithCancel(traceCtx("r2"))
	cancel()
	assert.NotPanics(t, func() {
		h.Before(ctx, "advice", "p")
		h.After(ctx, "advice", "raw", nil)
	})
	assert.Equal(t, 2, store.calls)
	assert.True(t, store.ctxOK, "writes are detached from the caller's cancellation")
	assert.Contains(t, buf.String(), "trace: s3 write r2/advice.prompt.txt: bucket gone")
}

func TestHook_UnknownRequestID(t *testing.T) {
	dir := t.TempDir()
	h := NewHook(&DirStore{Dir: dir}, "dir", nil, nil)
	h.Before(context.Background(), "advice", "p")
	_, err := os.Stat(filepath.Join(dir, "unknown", "advice.prompt.txt"))
	assert.NoError(t, err)
}

func TestDirStore_RejectsTraversal(t *testing.T) {
	d := &DirStore{Dir: t.TempDir()}
	assert.Error(t, d.Put(context.Background(), "../x", "a.txt", nil))
	assert.Error(t, d.Put(context.Background(), "..", "a.txt", nil))
	assert.Error(t, d.Put(context.Background(), "id", "a/b.txt", nil))
}

func TestObjectKey(t *testing.T) {
	k, err := objectKey("traces", "r1", "advice.prompt.txt")
	require.NoError(t, err)
	assert.Equal(t, "traces/r1/advice.prompt.txt", k)
	k, err = objectKey("", "r1", "x")
	require.NoError(t, err)
	assert.Equal(t, "r1/x", k)
	_, err = objectKey("", "a/b", "x")
	assert.Error(t, err)
}

func TestNew_SelectsSink(t *testing.T) {
	h, err := New(Config{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = New(Config{Sink: "dir", Dir: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Hook{}, h)

	_, err = New(Config{Sink: "dir"}, nil, nil)
	assert.Error(t, err)
	_, err = New(Config{Sink: "s3", S3: S3Config{Endpoint: "localhost:9000"}}, nil, nil)
	assert.Error(t, err, "credentials are required")
	_, err = New(Config{Sink: "kafka"}, nil, nil)
	assert.Error(t, err)

	h, err = New(Config{Sink: "s3", S3: S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "traces"}}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, h)
}
