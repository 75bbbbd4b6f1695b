package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_ExactObject(t *testing.T) {
	var out map[string]string
	err := ExtractJSON(`{"a":"b"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "b", out["a"])
}

func TestExtractJSON_WrappedInProse(t *testing.T) {
	var out map[string]string
	err := ExtractJSON("Sure, here's the result:\n```json\n{\"a\":\"b\"}\n```\nHope that helps!", &out)
	require.NoError(t, err)
	assert.Equal(t, "b", out["a"])
}

func TestExtractJSON_NoObjectFails(t *testing.T) {
	var out map[string]string
	err := ExtractJSON("no json here at all", &out)
	assert.ErrorIs(t, err, ErrParse)
}

func TestExtractJSON_MalformedFails(t *testing.T) {
	var out map[string]string
	err := ExtractJSON(`{"bad":}`, &out)
	assert.ErrorIs(t, err, ErrParse)
}
