package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("LLM_FAKE", "1")
	t.Setenv("TRACE_SINK", "off")
	t.Setenv("PROFILE_STORE_PG_DSN", "")
	t.Setenv("PROFILE_SEED_FILE", "")
	t.Setenv("MODEL_REGISTRY_FILE", "")
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("MODEL_ID", "")
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdviceInProcess(t *testing.T) {
	fakeEnv(t)
	out, err := execute(t, nil, "advice", "--scenario", "Change careers?", "--values", "freedom", "--request-id", "cli-1")
	require.NoError(t, err)

	var env struct {
		Analysis     struct{ Points []string } `json:"analysis"`
		IsStructured bool                      `json:"isStructured"`
		RequestID    string                    `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.IsStructured)
	assert.Len(t, env.Analysis.Points, 3)
	assert.Equal(t, "cli-1", env.RequestID)
}

func TestAdviceUserExcludesInlineProfile(t *testing.T) {
	fakeEnv(t)
	_, err := execute(t, nil, "advice", "--scenario", "s", "--user", "u1", "--values", "v")
	assert.Error(t, err)
}

func TestClassifyReadsStdin(t *testing.T) {
	fakeEnv(t)
	out, err := execute(t, strings.NewReader("Hard work is its own reward."), "classify", "--provider", "groq")
	require.NoError(t, err)
	assert.Contains(t, out, `"category": "VALUES"`)
	assert.Contains(t, out, `"providerId": "groq"`)
}

func TestModelsTableAndJSON(t *testing.T) {
	fakeEnv(t)
	out, err := execute(t, nil, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "gemini-2.5-flash")
	assert.Contains(t, out, "PROVIDER")

	out, err = execute(t, nil, "models", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"isDefault": true`)
}

func TestUnknownModelFails(t *testing.T) {
	fakeEnv(t)
	out, err := execute(t, nil, "classify", "--text", "x", "--model", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed_precondition")
	assert.Empty(t, out)
}
