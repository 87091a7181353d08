package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	tr := upper(t)
	copier := MustCompile(New[*record, *record, struct{}]("copy", newRecord, newRecord).Copy("A", "B", "C"))

	require.NoError(t, Register(reg, tr))
	require.NoError(t, Register(reg, copier))
	assert.ErrorContains(t, Register(reg, tr), "already registered")
	assert.Equal(t, []string{"copy", "upper"}, reg.Names())

	got, err := Lookup[*node, *tree, string](reg, "upper")
	require.NoError(t, err)
	assert.Same(t, tr, got)

	_, err = Lookup[*record, *record, string](reg, "copy")
	assert.ErrorContains(t, err, "registered as")
	_, err = Lookup[*record, *record, struct{}](reg, "nope")
	assert.ErrorContains(t, err, "not registered")

	rules, ok := reg.Describe("copy")
	require.True(t, ok)
	assert.Len(t, rules, 3)

	reg.Freeze()
	other := MustCompile(New[*record, *record, struct{}]("other", newRecord, newRecord).Exclude("A", "B", "C"))
	assert.ErrorContains(t, Register(reg, other), "frozen")
}
