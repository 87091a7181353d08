package claims

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectory(t *testing.T) {
	dir, err := ParseDirectory([]byte(`
payers:
  - id: PAYER01
    name: ACME HEALTH PLAN
  - id: PAYER02
    name: OTHER PLAN
  - id: PAYER01
    name: ACME HEALTH PLAN OF ILLINOIS
`))
	require.NoError(t, err)
	assert.Equal(t, 2, dir.Len())

	p, ok := dir.Payer("PAYER01")
	require.True(t, ok)
	assert.Equal(t, "ACME HEALTH PLAN OF ILLINOIS", p.Name, "later entries win")

	_, ok = dir.Payer("NOPE")
	assert.False(t, ok)
}

func TestParseDirectoryRejectsMissingID(t *testing.T) {
	_, err := ParseDirectory([]byte("payers:\n  - name: NAMELESS\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payer 0 has no id")

	_, err = ParseDirectory([]byte("payers: [unterminated"))
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payers:\n  - id: P1\n    name: ONE\n"), 0o644))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)
	assert.Equal(t, 1, dir.Len())

	_, err = LoadDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNilDirectory(t *testing.T) {
	var dir *Directory
	assert.Equal(t, 0, dir.Len())
	_, ok := dir.Payer("PAYER01")
	assert.False(t, ok)
}
