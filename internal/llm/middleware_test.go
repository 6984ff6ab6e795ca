package llm

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns text/err after an optional delay and counts calls.
type stubClient struct {
	mu     sync.Mutex
	text   string
	err    error
	delay  time.Duration
	calls  int
	closed bool
	times  []time.Time
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
func (s *stubClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.times = append(s.times, time.Now())
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

type tagClient struct {
	next LLMClient
	tag  string
	log  *[]string
}

func (t *tagClient) Name() string { return t.next.Name() }
func (t *tagClient) Close() error { return t.next.Close() }
func (t *tagClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	*t.log = append(*t.log, t.tag)
	return t.next.GenerateText(ctx, prompt)
}

func tag(name string, order *[]string) Middleware {
	return func(next LLMClient) LLMClient { return &tagClient{next: next, tag: name, log: order} }
}

func TestWrap_AppliesLeftToRight(t *testing.T) {
	var order []string
	c := Wrap(&stubClient{text: "x"}, tag("A", &order), nil, tag("B", &order))
	_, err := c.GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestWithTimeout_ReportsTimeoutError(t *testing.T) {
	inner := &stubClient{text: "late", delay: 200 * time.Millisecond}
	c := Wrap(inner, WithTimeout(20*time.Millisecond))

	_, err := c.GenerateText(context.Background(), "p")
	require.Error(t, err)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 20*time.Millisecond, te.After)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeout_CallerCancellationIsNotATimeout(t *testing.T) {
	inner := &stubClient{delay: time.Second}
	c := Wrap(inner, WithTimeout(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GenerateText(ctx, "p")
	require.Error(t, err)
	var te *TimeoutError
	assert.False(t, errors.As(err, &te))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout_DisabledReturnsInner(t *testing.T) {
	inner := &stubClient{}
	assert.Same(t, LLMClient(inner), Wrap(inner, WithTimeout(0)))
}

func TestRateLimit_SpacesCallsAfterBurst(t *testing.T) {
	inner := &stubClient{text: "ok"}
	c := Wrap(inner, RateLimit(20, 1))

	for i := 0; i < 3; i++ {
		_, err := c.GenerateText(context.Background(), "p")
		require.NoError(t, err)
	}
	require.Len(t, inner.times, 3)
	// 20 rps => ~50ms between tokens once the burst of 1 is spent.
	assert.GreaterOrEqual(t, inner.times[2].Sub(inner.times[0]), 80*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, inner.closed)
}

func TestRateLimit_HonorsContext(t *testing.T) {
	inner := &stubClient{}
	c := Wrap(inner, RateLimit(0.01, 1))
	defer c.Close()

	_, err := c.GenerateText(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GenerateText(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimit_DisabledReturnsInner(t *testing.T) {
	inner := &stubClient{}
	assert.Same(t, LLMClient(inner), Wrap(inner, RateLimit(0, 5)))
}

type recordingHook struct {
	before, after []string
	raw           string
	err           error
}

func (h *recordingHook) Before(ctx context.Context, phase, prompt string) {
	h.before = append(h.before, phase+":"+prompt)
}
func (h *recordingHook) After(ctx context.Context, phase, raw string, err error) {
	h.after = append(h.after, phase)
	h.raw, h.err = raw, err
}

func TestWithHooks_SeesPromptAndRawText(t *testing.T) {
	h := &recordingHook{}
	c := Wrap(&stubClient{text: `{"a":1}`}, WithHooks(h))

	ctx := WithPhase(context.Background(), "advice")
	_, err := c.GenerateText(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"advice:hello"}, h.before)
	assert.Equal(t, []string{"advice"}, h.after)
	assert.Equal(t, `{"a":1}`, h.raw)
	assert.NoError(t, h.err)
}

func TestHooks_FanOut(t *testing.T) {
	a, b := &recordingHook{}, &recordingHook{}
	boom := errors.New("boom")
	c := Wrap(&stubClient{err: boom}, WithHooks(Hooks{a, nil, b}))

	_, err := c.GenerateText(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
	for _, h := range []*recordingHook{a, b} {
		assert.Equal(t, []string{"unknown:p"}, h.before)
		assert.ErrorIs(t, h.err, boom)
	}
}

func TestWithLogging_DoesNotLogPrompt(t *testing.T) {
	var buf bytes.Buffer
	lg := log.New(&buf, "", 0)
	c := Wrap(&stubClient{err: errors.New("upstream down")}, WithLogging(lg))

	ctx := WithRequestID(WithPhase(context.Background(), "classification"), "req-1")
	_, _ = c.GenerateText(ctx, "secret question")
	out := buf.String()
	assert.Contains(t, out, "LLM request (classification) stub req=req-1: 15 bytes")
	assert.Contains(t, out, "upstream down")
	assert.False(t, strings.Contains(out, "secret question"))
}

type observation struct {
	provider, model, outcome string
}

type fakeObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeObserver) ObserveCall(provider, model, outcome string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{provider, model, outcome})
}

func TestWithLatency_ClassifiesOutcome(t *testing.T) {
	obs := &fakeObserver{}
	ok := Wrap(&stubClient{text: "x"}, WithLatency(obs, "p", "m"))
	slow := Wrap(&stubClient{delay: time.Second}, WithLatency(obs, "p", "m"), WithTimeout(10*time.Millisecond))
	bad := Wrap(&stubClient{err: errors.New("x")}, WithLatency(obs, "p", "m"))

	_, _ = ok.GenerateText(context.Background(), "")
	_, _ = slow.GenerateText(context.Background(), "")
	_, _ = bad.GenerateText(context.Background(), "")
	assert.Equal(t, []observation{
		{"p", "m", OutcomeOK},
		{"p", "m", OutcomeTimeout},
		{"p", "m", OutcomeError},
	}, obs.obs)
}

func TestPhaseAndRequestIDDefaults(t *testing.T) {
	assert.Equal(t, "unknown", PhaseFrom(context.Background()))
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}
