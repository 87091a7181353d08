package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/x12"
)

func TestBuiltinCatalog(t *testing.T) {
	cat, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, []string{"837I", "837P"}, cat.TransactionNames())

	again, err := Builtin()
	require.NoError(t, err)
	assert.Same(t, cat, again, "builtin catalog is compiled once")
}

func TestBuiltinCatalogIsValid(t *testing.T) {
	results := Validate(MustBuiltin())
	assert.Empty(t, ir.ErrorsOnly(results), ir.JoinResults(results))
}

func TestBuiltinProfessionalShape(t *testing.T) {
	tx, ok := MustBuiltin().Transaction("837P")
	require.True(t, ok)
	assert.Equal(t, "005010X222A1", tx.Version)

	names := make([]string, len(tx.Body.Children))
	for i, r := range tx.Body.Children {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"BHT", "1000A", "1000B", "2000A"}, names)

	a, _, _ := tx.Body.Child("2000A")
	assert.Equal(t, "20", a.Loop.Level)
	b, _, _ := a.Loop.Child("2000B")
	assert.Equal(t, "22", b.Loop.Level)
	c, _, _ := b.Loop.Child("2000C")
	assert.Equal(t, "23", c.Loop.Level)

	claim, _, _ := b.Loop.Child("2300")
	hi, _, ok := claim.Loop.Child("HI_Diagnosis")
	require.True(t, ok)
	require.Len(t, hi.Qualifiers, 1)
	assert.Equal(t, 1, hi.Qualifiers[0].Component)

	line, _, _ := claim.Loop.Child("2400")
	sv1, _, ok := line.Loop.Child("SV1")
	require.True(t, ok)
	sv101, ok := sv1.Segment.Element("SV101")
	require.True(t, ok)
	assert.True(t, sv101.IsComposite())
}

func TestBuiltinInstitutionalDiffers(t *testing.T) {
	cat := MustBuiltin()
	p, _ := cat.Transaction("837P")
	i, _ := cat.Transaction("837I")

	claimLoop := func(tx *Transaction) *Loop {
		a, _, _ := tx.Body.Child("2000A")
		b, _, _ := a.Loop.Child("2000B")
		c, _, _ := b.Loop.Child("2300")
		return c.Loop
	}
	_, _, hasCL1 := claimLoop(i).Child("CL1")
	assert.True(t, hasCL1)
	_, _, hasCL1 = claimLoop(p).Child("CL1")
	assert.False(t, hasCL1)
	assert.NotSame(t, claimLoop(p), claimLoop(i))
}

func mustTokenize(t *testing.T, text string) []x12.Segment {
	t.Helper()
	segs, _, err := x12.Tokenize([]byte(text), x12.WithDelimiters(x12.DefaultDelimiters()))
	require.NoError(t, err)
	return segs
}
