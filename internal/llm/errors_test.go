package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/llmclient"
	"compass/internal/model"
)

func TestProviderError_Retryable(t *testing.T) {
	cases := []struct {
		name string
		err  *ProviderError
		want bool
	}{
		{"network", &ProviderError{Err: errors.New("dial tcp")}, true},
		{"timeout", &ProviderError{Timeout: true, Err: context.DeadlineExceeded}, true},
		{"429", &ProviderError{StatusCode: http.StatusTooManyRequests, Err: errors.New("x")}, true},
		{"503", &ProviderError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("x")}, true},
		{"401", &ProviderError{StatusCode: http.StatusUnauthorized, Err: errors.New("x")}, false},
		{"permanent", &ProviderError{StatusCode: http.StatusBadRequest, Err: llmclient.NewPermanentError(errors.New("too long"))}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Retryable())
		})
	}
}

func TestProviderError_DiagnosticIsShortSingleLine(t *testing.T) {
	pe := &ProviderError{Provider: "groq", Err: errors.New(strings.Repeat("line\n", 100))}
	d := pe.Diagnostic()
	assert.NotContains(t, d, "\n")
	assert.LessOrEqual(t, len(d), maxDiagnosticLen+3)

	pe = &ProviderError{Provider: "groq", StatusCode: 429, Err: errors.New("x")}
	assert.Equal(t, "groq rate limit reached", pe.Diagnostic())

	pe = &ProviderError{Provider: "gemini", Timeout: true, Err: &TimeoutError{After: time.Minute, Err: context.DeadlineExceeded}}
	assert.Equal(t, "gemini request timed out after 1m0s", pe.Diagnostic())
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Provider: "gemini", Model: "gemini-2.5-flash", Setting: "GEMINI_API_KEY", Err: ErrMissingCredential}
	assert.Equal(t, "configuration error provider=gemini model=gemini-2.5-flash setting=GEMINI_API_KEY: credential is not set", err.Error())
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestResolveCredential(t *testing.T) {
	p := model.Provider{ID: "gemini", CredentialEnv: "COMPASS_TEST_KEY"}
	d := model.Descriptor{ModelID: "m"}

	t.Setenv("COMPASS_TEST_KEY", "  ")
	_, err := ResolveCredential(EnvCredentials{}, p, d)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "COMPASS_TEST_KEY", ce.Setting)

	t.Setenv("COMPASS_TEST_KEY", "secret")
	key, err := ResolveCredential(nil, p, d)
	require.NoError(t, err)
	assert.Equal(t, "secret", key)

	key, err = ResolveCredential(StaticCredentials{"COMPASS_TEST_KEY": "s2"}, p, d)
	require.NoError(t, err)
	assert.Equal(t, "s2", key)
}
