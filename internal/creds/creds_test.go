package creds

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolve_FromEnvironment(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("BINANCE_API_SECRET", "env-secret")

	c, err := resolve(zap.NewNop(), strings.NewReader(""), &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "env-key", c.ApiKey)
	assert.Equal(t, "env-secret", c.SecretKey)
}

func TestResolve_PromptFallback(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	in := strings.NewReader("typed-key\ntyped-secret\n")
	out := &bytes.Buffer{}

	c, err := resolve(zap.NewNop(), in, out)

	require.NoError(t, err)
	assert.Equal(t, "typed-key", c.ApiKey)
	assert.Equal(t, "typed-secret", c.SecretKey)
	assert.Contains(t, out.String(), "API key")
	assert.Contains(t, out.String(), "API secret")
}

func TestResolve_EmptyInput(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")

	_, err := resolve(zap.NewNop(), strings.NewReader("\n\n"), &bytes.Buffer{})

	assert.Error(t, err)
}
