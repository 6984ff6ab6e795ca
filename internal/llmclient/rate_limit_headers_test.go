package llmclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimitHeaders_GroqFormat(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after", "2")
	h.Set("x-ratelimit-limit-requests", "14400")
	h.Set("x-ratelimit-limit-tokens", "18000")
	h.Set("x-ratelimit-remaining-requests", "14370")
	h.Set("x-ratelimit-remaining-tokens", "17997")
	h.Set("x-ratelimit-reset-requests", "2m59.56s")
	h.Set("x-ratelimit-reset-tokens", "7.66s")

	got, ok := parseRateLimitHeaders(h)
	require.True(t, ok, "expected headers to be parsed")
	assert.Equal(t, 2, got.RetryAfterSeconds)
	assert.Equal(t, 14400, got.LimitRequests)
	assert.Equal(t, 18000, got.LimitTokens)
	assert.Equal(t, 14370, got.RemainingRequests)
	assert.Equal(t, 17997, got.RemainingTokens)
	assert.Equal(t, 2*time.Minute+59*time.Second+560*time.Millisecond, got.ResetRequests)
	assert.Equal(t, 7*time.Second+660*time.Millisecond, got.ResetTokens)
}

func TestParseRateLimitHeaders_NoneFound(t *testing.T) {
	got, ok := parseRateLimitHeaders(http.Header{})
	assert.False(t, ok)
	assert.Zero(t, got.RetryAfter())
}

func TestRateLimitHeaders_RetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, RateLimitHeaders{RetryAfterSeconds: 3}.RetryAfter())
	assert.Equal(t, 5*time.Second, RateLimitHeaders{RemainingTokens: 0, RemainingRequests: -1, ResetTokens: 5 * time.Second}.RetryAfter())
	assert.Equal(t, 11*time.Second, RateLimitHeaders{RemainingTokens: -1, RemainingRequests: 0, ResetRequests: 11 * time.Second}.RetryAfter())
	assert.Zero(t, RateLimitHeaders{RemainingTokens: 10, RemainingRequests: 10}.RetryAfter())
}
