package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/testutil"
)

var fixedTime = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

func fixedRunID() (uuid.UUID, error) {
	return uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057"), nil
}

// createTestStore opens a sqlite archive in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixtureRecord decodes an 837P interchange and builds its record.
func fixtureRecord(t *testing.T, env testutil.Envelope) ([]byte, Record) {
	t.Helper()
	raw := []byte(env.Build(testutil.Professional837()))
	p, err := claims.NewProfessional(schema.MustBuiltin(), nil)
	require.NoError(t, err)
	doc, err := document.Parse(strings.NewReader(string(raw)), p.Schema())
	require.NoError(t, err)
	ic, err := p.Decode(doc)
	require.NoError(t, err)
	rec, err := NewRecord(raw, ic)
	require.NoError(t, err)
	return raw, rec
}
