package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommandInMemory(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--store", "Test Provisions"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Test Provisions")
	assert.Contains(t, out, "owner@demo.sedifex.com")
	assert.Contains(t, out, "products: 5")
}

func TestCreateUserRequiresFlags(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")

	cmd := NewCreateUserCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")
}
