package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate(0)
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, MinLength)

	b, err := Generate(48)
	require.NoError(t, err)
	raw, err = base64.RawURLEncoding.DecodeString(b)
	require.NoError(t, err)
	assert.Len(t, raw, 48)
	assert.NotEqual(t, a, b)
}
