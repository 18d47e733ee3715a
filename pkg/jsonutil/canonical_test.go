package jsonutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcgs2503/vestbridge/pkg/jsonutil"
)

func TestCanonicalMarshal_SortedKeys(t *testing.T) {
	input := map[string]any{
		"symbol": "AAPL",
		"qty":    10.0,
		"action": "place_order",
	}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"place_order","qty":10,"symbol":"AAPL"}`, string(out))
}

func TestCanonicalMarshal_Nested(t *testing.T) {
	input := map[string]any{
		"params": map[string]any{"side": "buy", "qty": 1.0},
		"action": "place_order",
	}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"place_order","params":{"qty":1,"side":"buy"}}`, string(out))
}

func TestCanonicalMarshal_NullValue(t *testing.T) {
	input := map[string]any{"prev_hash": nil}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"prev_hash":null}`, string(out))
}

func TestCanonicalMarshal_StructTagsApply(t *testing.T) {
	type payload struct {
		B string `json:"zeta"`
		A string `json:"alpha"`
	}
	out, err := jsonutil.CanonicalMarshal(payload{B: "2", A: "1"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"1","zeta":"2"}`, string(out))
}

func TestCanonicalMarshal_Deterministic(t *testing.T) {
	input := map[string]any{"c": 3, "a": 1, "b": []any{"x", "y"}}
	first, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := jsonutil.CanonicalMarshal(input)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestHash_Prefix(t *testing.T) {
	h, err := jsonutil.Hash(map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "sha256:"))
	assert.Len(t, h, len("sha256:")+64)
}

func TestHash_OrderIndependent(t *testing.T) {
	h1, err := jsonutil.Hash(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	h2, err := jsonutil.Hash(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashBytes_RawContent(t *testing.T) {
	h1 := jsonutil.HashBytes([]byte("mandate-file-contents"))
	h2 := jsonutil.HashBytes([]byte("mandate-file-contents"))
	h3 := jsonutil.HashBytes([]byte("mandate-file-contents!"))
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.True(t, strings.HasPrefix(h1, "sha256:"))
}
