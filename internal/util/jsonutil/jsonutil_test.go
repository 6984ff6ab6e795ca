package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"a": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<b>&</b>"}`, string(b))

	b, err = MarshalNoEscapeIndent(map[string]int{"n": 1}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": 1\n}", string(b))
}

func TestDecodeStrict(t *testing.T) {
	type payload struct {
		A int `json:"a"`
	}
	var p payload
	require.NoError(t, DecodeStrict([]byte(" {\"a\":1} \n"), &p))
	assert.Equal(t, 1, p.A)

	assert.Error(t, DecodeStrict([]byte(`{"a":1,"b":2}`), &p), "unknown field")
	assert.ErrorIs(t, DecodeStrict([]byte(`{"a":1}{"a":2}`), &p), ErrTrailingData)
	assert.ErrorIs(t, DecodeStrict([]byte(`{"a":1} trailing`), &p), ErrTrailingData)
	assert.Error(t, DecodeStrict([]byte(`{"a":"1"}`), &p), "wrong type")
	assert.Error(t, DecodeStrict([]byte(``), &p))
}
