package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/translate"
)

func TestScrubParty(t *testing.T) {
	scrub, err := translate.Compile(scrubParty())
	require.NoError(t, err)

	in := NewParty()
	in.Name = ir.Present("DOE")
	in.PostalCode = ir.Present("62701-0000")
	in.Phone = ir.Present("(555) 555-1234")
	in.Address2 = ir.Present("")

	out, err := scrub.Translate(in, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Present("DOE"), out.Name)
	assert.Equal(t, ir.Present("627010000"), out.PostalCode)
	assert.Equal(t, ir.Present("5555551234"), out.Phone)
	assert.Equal(t, ir.Present(""), out.Address2, "present empty stays present")
	assert.True(t, out.City.IsMissing())
	assert.Equal(t, ir.Present("(555) 555-1234"), in.Phone, "input untouched")
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "5555551234", digits("555-555 1234"))
	assert.Equal(t, "", digits("N/A"))
	assert.Equal(t, "12", digits("1٢2"), "non-ASCII digits dropped")
}

func TestPartyOutExcludesUnfillableReferences(t *testing.T) {
	p := newProfessional(t, nil)
	spec := partyOut(p.loops.patientName)
	require.Empty(t, spec.Validate())

	kinds := make(map[ir.FieldKey]translate.RuleKind)
	for _, r := range spec.Rules() {
		kinds[r.Key] = r.Kind
	}
	assert.Equal(t, translate.RuleSet, kinds["NM1"])
	assert.Equal(t, translate.RuleSet, kinds["DMG"])
}

func TestCompiledSpecsValidate(t *testing.T) {
	p := newProfessional(t, nil)
	for _, loop := range p.loops.names() {
		assert.Empty(t, partyIn(loop).Validate(), loop.ID)
		assert.Empty(t, partyOut(loop).Validate(), loop.ID)
	}
	assert.Empty(t, lineIn(p.loops.line).Validate())
	assert.Empty(t, lineOut(p.loops.line).Validate())
	assert.Empty(t, diagnosisIn(p.loops.diagnosis).Validate())
}
