package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `
version: "t1"
default:
  provider: a
  model: m-low
providers:
  - id: A
    kind: gemini
    credentialEnv: A_KEY
    models:
      - id: m-low
        temperature: 0.2
      - id: m-high
        displayName: High
        temperature: 1.5
        timeout: 5s
  - id: b
    kind: openai
    credentialEnv: B_KEY
    baseURL: https://b.example/v1
    models:
      - id: m-high
        maxOutputTokens: 128
        rateLimit:
          rps: 2
          burst: 1
`

func TestLoadDefault_EmbeddedTableIsValid(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Version())

	def := reg.Default()
	assert.Equal(t, "gemini", def.ProviderID)
	assert.Equal(t, "gemini-2.5-flash", def.ModelID)

	for _, d := range reg.Models() {
		assert.NotEmpty(t, d.ModelID)
		assert.GreaterOrEqual(t, d.Temperature, 0.0, d.Key())
		assert.LessOrEqual(t, d.Temperature, 2.0, d.Key())
		assert.Positive(t, d.Timeout, d.Key())
		_, ok := reg.Provider(d.ProviderID)
		assert.True(t, ok, "provider of %s registered", d.Key())
	}
}

func TestLoad_DefaultsAndInheritance(t *testing.T) {
	reg, err := Load([]byte(testTable))
	require.NoError(t, err)

	low, err := reg.Lookup("a", "m-low")
	require.NoError(t, err)
	assert.Equal(t, "m-low", low.DisplayName, "display name falls back to id")
	assert.Equal(t, DefaultTimeout, low.Timeout)

	bHigh, err := reg.Lookup(" B ", "m-high")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example/v1", bHigh.EndpointBaseURL, "provider base URL is inherited")
	assert.Equal(t, DefaultTemperature, bHigh.Temperature)
	assert.Equal(t, RateLimit{RPS: 2, Burst: 1}, bHigh.RateLimit)

	aHigh, err := reg.Lookup("a", "m-high")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, aHigh.Timeout)

	p, ok := reg.Provider("b")
	require.True(t, ok)
	assert.Equal(t, KindOpenAI, p.Kind)
	assert.Equal(t, "B_KEY", p.CredentialEnv)
}

func TestLookup_PartialSelection(t *testing.T) {
	reg, err := Load([]byte(testTable))
	require.NoError(t, err)

	d, err := reg.Lookup("", "")
	require.NoError(t, err)
	assert.Equal(t, "a::m-low", d.Key())

	d, err = reg.Lookup("b", "")
	require.NoError(t, err)
	assert.Equal(t, "b::m-high", d.Key(), "provider only picks the provider's first model")

	d, err = reg.Lookup("a", "")
	require.NoError(t, err)
	assert.Equal(t, "a::m-low", d.Key(), "provider only prefers the default")

	d, err = reg.Lookup("", "m-high")
	require.NoError(t, err)
	assert.Equal(t, "a::m-high", d.Key(), "model only prefers the default provider")

	_, err = reg.Lookup("c", "")
	assert.ErrorIs(t, err, ErrProviderNotRegistered)
	_, err = reg.Lookup("", "nope")
	assert.ErrorIs(t, err, ErrModelNotRegistered)
	_, err = reg.Lookup("b", "m-low")
	assert.ErrorIs(t, err, ErrModelNotRegistered)
}

func TestLoad_WithDefaultOverride(t *testing.T) {
	reg, err := Load([]byte(testTable), WithDefault("b", "m-high"))
	require.NoError(t, err)
	assert.Equal(t, "b::m-high", reg.Default().Key())

	_, err = Load([]byte(testTable), WithDefault("b", "m-low"))
	assert.ErrorIs(t, err, ErrModelNotRegistered)
}

func TestLoad_RejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"temperature above 2": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m, temperature: 2.5}]}`,
		"negative temperature": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m, temperature: -0.1}]}`,
		"NaN temperature": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m, temperature: .nan}]}`,
		"empty model id": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m}, {id: " "}]}`,
		"unknown kind": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: anthropic, credentialEnv: K, models: [{id: m}]}`,
		"missing credential env": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, models: [{id: m}]}`,
		"duplicate model": `
version: x
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m}, {id: m}]}`,
		"missing version": `
default: {provider: a, model: m}
providers:
  - {id: a, kind: gemini, credentialEnv: K, models: [{id: m}]}`,
		"not yaml": `{{{`,
	}
	for name, table := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(table))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTable), "got %v", err)
		})
	}
}

func TestModels_ReturnsCopies(t *testing.T) {
	reg, err := Load([]byte(testTable))
	require.NoError(t, err)
	ms := reg.Models()
	require.Len(t, ms, 3)
	ms[0].Temperature = 9

	again, err := reg.Lookup(ms[0].ProviderID, ms[0].ModelID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, again.Temperature)
}
