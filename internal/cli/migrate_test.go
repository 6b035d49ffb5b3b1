package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommandSQLite(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")

	buf := &bytes.Buffer{}
	cmd := NewMigrateCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--driver", "sqlite3", "--dsn", filepath.Join(t.TempDir(), "cli.db")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "schema up to date (sqlite3)")

	// A second run is a no-op thanks to IF NOT EXISTS.
	require.NoError(t, cmd.Execute())
}

func TestMigrateCommandNoDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")

	cmd := NewMigrateCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DSN")
}
