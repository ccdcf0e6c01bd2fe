package canonicalize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/canonicalize"
)

func TestJCS_KeyOrderIndependence(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "c": map[string]any{"y": 2, "x": 1}}
	b := map[string]any{"c": map[string]any{"x": 1, "y": 2}, "a": 1, "b": 2}

	ca, err := canonicalize.JCS(a)
	require.NoError(t, err)
	cb, err := canonicalize.JCS(b)
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
	assert.Equal(t, `{"a":1,"b":2,"c":{"x":1,"y":2}}`, string(ca))
}

func TestCanonicalHash_StableAndPrefixed(t *testing.T) {
	v := struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}{Name: "deal", Count: 3}

	h1, err := canonicalize.CanonicalHash(v)
	require.NoError(t, err)
	h2, err := canonicalize.CanonicalHash(v)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "sha256:"))
	assert.Len(t, strings.TrimPrefix(h1, "sha256:"), 64)
}

func TestCanonicalHash_SensitiveToContent(t *testing.T) {
	h1, err := canonicalize.CanonicalHash(map[string]any{"round": 1})
	require.NoError(t, err)
	h2, err := canonicalize.CanonicalHash(map[string]any{"round": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
