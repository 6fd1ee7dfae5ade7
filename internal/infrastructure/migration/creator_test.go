package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create incidents table", "create_incidents_table"},
		{"Add-Inventory-Ledger", "add_inventory_ledger"},
		{"  weird///name!!  ", "weirdname"},
		{"already_sane", "already_sane"},
		{"trailing space ", "trailing_space"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "create incidents table")
	require.NoError(t, err)

	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_create_incidents_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_create_incidents_table.down.sql"))
	assert.Len(t, mf.Version, 14)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "initial")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"20260101000000_b.up.sql",
		"20260101000000_b.down.sql",
		"20250101000000_a.up.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- x\n"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"20250101000000_a.up.sql",
		"20260101000000_b.down.sql",
		"20260101000000_b.up.sql",
	}, names)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	_, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
