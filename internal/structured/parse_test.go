package structured

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	Items []string `json:"items"`
	Note  string   `json:"note"`
}

func (p *pair) Validate() error {
	if len(p.Items) != 2 {
		return Invalid("items: want 2, got %d", len(p.Items))
	}
	if p.Note == "" {
		return errors.New("note is blank")
	}
	return nil
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"  {\"a\":1}\n":                "{\"a\":1}",
		"```json\n{\"a\":1}\n```":      "{\"a\":1}",
		"```JSON\n{\"a\":1}\n```  ":    "{\"a\":1}",
		"```\n{\"a\":1}\n```":          "{\"a\":1}",
		"```{\"a\":1}```":              "{\"a\":1}",
		"```json {\"a\":1}```":         "{\"a\":1}",
		"   ":                          "",
		"text before ```json\n{}\n```": "text before ```json\n{}\n```",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "input %q", in)
	}
}

func TestParse_Success(t *testing.T) {
	got, err := Parse[pair]("```json\n{\"items\":[\"a\",\"b\"],\"note\":\"n\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, pair{Items: []string{"a", "b"}, Note: "n"}, got)
}

func TestParse_FailuresAreSingleSchemaError(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"whitespace":     " \n ",
		"prose":          "Here is some advice for you.",
		"unknown field":  `{"items":["a","b"],"note":"n","extra":1}`,
		"wrong type":     `{"items":"a,b","note":"n"}`,
		"cardinality":    `{"items":["a"],"note":"n"}`,
		"validate error": `{"items":["a","b"],"note":""}`,
		"trailing data":  `{"items":["a","b"],"note":"n"} and more`,
		"two objects":    `{"items":["a","b"],"note":"n"}{}`,
		"truncated":      `{"items":["a","b"],"note":"n"`,
		"array":          `[1,2]`,
		"upper-case key": `{"ITEMS":["a","b"],"note":"n"}`,
		"title-case key": `{"items":["a","b"],"Note":"n"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse[pair](raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaValidation)
			var se *SchemaValidationError
			assert.ErrorAs(t, err, &se)
			assert.Zero(t, got, "no partial data")
		})
	}
}

func TestParse_TypesWithoutValidator(t *testing.T) {
	type plain struct {
		A int `json:"a"`
	}
	got, err := Parse[plain](`{"a": 3}`)
	require.NoError(t, err)
	assert.Equal(t, 3, got.A)
}

type nestedReply struct {
	Analysis struct {
		Points []string `json:"points"`
	} `json:"analysis"`
	Entries []struct {
		Category string `json:"category"`
	} `json:"entries"`
	FullContent string `json:"fullContent"`
}

func TestParse_FieldNamesMatchExactlyAtEveryLevel(t *testing.T) {
	_, err := Parse[nestedReply](`{"analysis":{"points":["a"]},"entries":[{"category":"X"}],"fullContent":"x"}`)
	require.NoError(t, err)

	cases := map[string]string{
		"top level":     `{"ANALYSIS":{"points":["a"]},"entries":[],"fullContent":"x"}`,
		"nested object": `{"analysis":{"Points":["a"]},"entries":[],"fullContent":"x"}`,
		"slice element": `{"analysis":{"points":[]},"entries":[{"Category":"X"}],"fullContent":"x"}`,
		"camel case":    `{"analysis":{"points":[]},"entries":[],"FullContent":"x"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse[nestedReply](raw)
			require.ErrorIs(t, err, ErrSchemaValidation)
			assert.Contains(t, err.Error(), "unknown field")
			assert.Zero(t, got)
		})
	}
}
