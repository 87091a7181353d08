package claims

import (
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/testutil"
)

func fixture837P() string {
	env := testutil.NewEnvelope()
	env.Suffix = "\n"
	return env.Build(testutil.Professional837())
}

func directory() *Directory {
	return NewDirectory(Payer{ID: "PAYER01", Name: "ACME HEALTH PLAN"})
}

func newProfessional(t *testing.T, dir *Directory) *Professional {
	t.Helper()
	p, err := NewProfessional(schema.MustBuiltin(), dir)
	require.NoError(t, err)
	return p
}

func parse(t *testing.T, p *Professional, text string) *document.Document {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(text), p.Schema())
	require.NoError(t, err)
	return doc
}

func decode(t *testing.T, p *Professional, text string) *Interchange {
	t.Helper()
	ic, err := p.Decode(parse(t, p, text))
	require.NoError(t, err)
	return ic
}

func must[T any](t *testing.T, v interface{ Get() (T, bool) }) T {
	t.Helper()
	got, ok := v.Get()
	require.True(t, ok, "value is missing")
	return got
}

func dec(t *testing.T, s string) apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return *d
}
