package llm

import (
	"context"

	"compass/internal/llmclient"
)

// FakeClient returns deterministic, schema-conforming JSON per phase for
// offline runs (LLM_FAKE=1) and tests.
type FakeClient struct {
	model string
}

// NewFake is a ClientFactory that ignores credentials and endpoints.
func NewFake(_ context.Context, cfg llmclient.Config) (LLMClient, error) {
	return &FakeClient{model: cfg.Model}, nil
}

func (f *FakeClient) Name() string { return "FakeLLM:" + f.model }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch PhaseFrom(ctx) {
	case "classification":
		return fakeClassification, nil
	default:
		return fakeAdvice, nil
	}
}

const fakeAdvice = "```json\n" + `{
  "analysis": {"points": [
    "You weigh long-term consequences before acting.",
    "Your values emphasise responsibility toward others.",
    "You look for meaning in everyday routines."
  ]},
  "actions": {"points": [
    "Write down the decision and the value it serves.",
    "Talk it through with someone who disagrees with you.",
    "Revisit the choice in two weeks and note what changed."
  ]},
  "fullContent": "This is offline sample advice produced without a model provider."
}` + "\n```"

const fakeClassification = `{
  "classifications": [
    {"category": "VALUES", "percentage": 50, "explanation": "The question is about what matters most."},
    {"category": "WORLDVIEW", "percentage": 30, "explanation": "It touches on how the world works."},
    {"category": "LIFE_PHILOSOPHY", "percentage": 20, "explanation": "It hints at a way of living."}
  ],
  "summary": "Mostly a question of values, produced offline without a model provider."
}`
