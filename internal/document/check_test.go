package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/testutil"
)

func codes(results []ir.ValidateResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Code
	}
	return out
}

func TestCheckConformingDocument(t *testing.T) {
	doc := mustParse(t, fixture837P(), professional(t))
	results := Check(doc)
	assert.Empty(t, results, ir.JoinResults(results))
}

func TestCheckRequiredElementMissing(t *testing.T) {
	body := edit(t, testutil.Professional837(), "CLM*PATIENT001*150.00***11:B:1*Y*A*Y*Y", "CLM**150.00***11:B:1*Y*A*Y*Y")
	results := Check(mustParse(t, build837P(body), professional(t)))

	require.Len(t, results, 1, ir.JoinResults(results))
	assert.Equal(t, CodeRequiredElement, results[0].Code)
	assert.Equal(t, ir.SeverityError, results[0].Severity)
	assert.Contains(t, string(results[0].Key), "/CLM/CLM01")
}

func TestCheckNotUsedElementWarns(t *testing.T) {
	body := edit(t, testutil.Professional837(), "NM1*40*2*PAYER CLEARINGHOUSE*****46*987654321",
		"NM1*40*2*PAYER CLEARINGHOUSE*****46*987654321*01")
	results := Check(mustParse(t, build837P(body), professional(t)))

	require.Len(t, results, 1, ir.JoinResults(results))
	assert.Equal(t, CodeNotUsedElement, results[0].Code)
	assert.Equal(t, ir.SeverityWarning, results[0].Severity)
	assert.False(t, ir.HasErrors(results))
}

func TestCheckElementLength(t *testing.T) {
	body := edit(t, testutil.Professional837(), "N4*SPRINGFIELD*IL*62702", "N4*SPRINGFIELD*ILL*62702")
	results := Check(mustParse(t, build837P(body), professional(t)))

	require.Len(t, results, 1, ir.JoinResults(results))
	assert.Equal(t, CodeElementLength, results[0].Code)
	assert.Contains(t, results[0].Message, "N402 length 3")
}

func TestCheckComponentUsage(t *testing.T) {
	body := edit(t, testutil.Professional837(), "HI*ABK:J069", "HI*ABK")
	results := Check(mustParse(t, build837P(body), professional(t)))

	require.Len(t, results, 1, ir.JoinResults(results))
	assert.Equal(t, CodeRequiredElement, results[0].Code)
	assert.Contains(t, string(results[0].Key), "HI01-02")
}

func TestCheckControls(t *testing.T) {
	text := fixture837P()
	doc := mustParse(t, text, professional(t))

	tx := doc.Transactions()[0]
	require.NoError(t, ir.Put(tx.Segment("SE"), "SE01", ir.Present[int64](7)))
	require.NoError(t, tx.Segment("SE").SetText("SE02", "9999"))
	group := doc.Root.Loop("FunctionalGroup")
	require.NoError(t, ir.Put(group.Segment("GE"), "GE01", ir.Present[int64](2)))
	require.NoError(t, ir.Put(group.Segment("GE"), "GE02", ir.Present[int64](8)))
	require.NoError(t, ir.Put(doc.Root.Segment("IEA"), "IEA01", ir.Present[int64](3)))
	require.NoError(t, ir.Put(doc.Root.Segment("IEA"), "IEA02", ir.Present[int64](1)))

	results := Check(doc)
	assert.ElementsMatch(t, []string{
		CodeControlCount, CodeControlNumber,
		CodeControlCount, CodeControlNumber,
		CodeControlCount, CodeControlNumber,
	}, codes(results), ir.JoinResults(results))

	require.NoError(t, SealEnvelope(doc))
	assert.Empty(t, Check(doc))

	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, text, string(out))
}

func TestSealEnvelopeRequiresHeaders(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	slot, ok := ir.Lookup(doc.Root, "ISA")
	require.True(t, ok)
	slot.SetMissing()

	assert.ErrorContains(t, SealEnvelope(doc), "no ISA")
}

func TestControlNumber(t *testing.T) {
	assert.Equal(t, "0001", ControlNumber(1))
	assert.Equal(t, "12345", ControlNumber(12345))
}
