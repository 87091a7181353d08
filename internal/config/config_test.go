package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/x12"
)

func TestDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	d, err := cfg.Delimiters()
	require.NoError(t, err)
	assert.Equal(t, x12.DefaultDelimiters(), d)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
archive: postgres://machete@localhost/archive
output:
  delimiters: "|>!\n"
  suffix: "\r\n"
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://machete@localhost/archive", cfg.Archive)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	d, err := cfg.Delimiters()
	require.NoError(t, err)
	assert.Equal(t, x12.Delimiters{Element: '|', Component: '>', Repetition: '!', Segment: '\n', Suffix: "\r\n"}, d)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"unknown key", "archiv: x.db\n", "field archiv not found"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"short delimiters", "output:\n  delimiters: \"*:\"\n", "want 4 characters"},
		{"duplicate delimiters", "output:\n  delimiters: \"**^~\"\n", "output.delimiters"},
		{"alphanumeric delimiter", "output:\n  delimiters: \"A:^~\"\n", "alphanumeric"},
		{"bad suffix", "output:\n  suffix: \"--\"\n", "suffix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: catalog
directory: payers.yaml
archive: data/archive.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "catalog"), cfg.Catalog)
	assert.Equal(t, filepath.Join(dir, "payers.yaml"), cfg.Directory)
	assert.Equal(t, filepath.Join(dir, "data/archive.db"), cfg.Archive)
}

func TestLoadKeepsURLsAndAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archive: postgres://localhost/db\ndirectory: /etc/payers.yaml\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/db", cfg.Archive)
	assert.Equal(t, "/etc/payers.yaml", cfg.Directory)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalogAndDirectory(t *testing.T) {
	cfg := Default()
	cat, err := cfg.LoadCatalog()
	require.NoError(t, err)
	_, ok := cat.Transaction("837P")
	assert.True(t, ok)

	dir, err := cfg.LoadDirectory()
	require.NoError(t, err)
	assert.Nil(t, dir)

	path := filepath.Join(t.TempDir(), "payers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payers:\n  - id: P1\n    name: ONE\n"), 0o644))
	cfg.Directory = path
	dir, err = cfg.LoadDirectory()
	require.NoError(t, err)
	assert.Equal(t, 1, dir.Len())
}
