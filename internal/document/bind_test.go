package document

import (
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/testutil"
)

func TestBindProfessionalClaim(t *testing.T) {
	doc := mustParse(t, fixture837P(), professional(t))
	assert.Equal(t, "\n", doc.Delimiters.Suffix)

	txs := doc.Transactions()
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "ST_837P", tx.Descriptor().ID)
	assert.Equal(t, "244579", tx.Segment("BHT").Text("BHT03").OrElse(""))
	assert.Equal(t, "ACME BILLING", tx.Loop("1000A").Segment("NM1").Text("NM103").OrElse(""))
	assert.Len(t, tx.Loop("1000A").Segments("PER"), 1)

	billing := tx.Loops("2000A")
	require.Len(t, billing, 1)
	assert.Equal(t, ir.Present[int64](1), billing[0].LevelID())
	assert.True(t, billing[0].ParentID().IsMissing())
	assert.Equal(t, "20", billing[0].LevelCode())
	assert.Equal(t, "371234567", billing[0].Loop("2010AA").Segment("REF_TaxID").Text("REF02").OrElse(""))

	subscribers := billing[0].Loops("2000B")
	require.Len(t, subscribers, 2)
	assert.Equal(t, ir.Present[int64](2), subscribers[0].LevelID())
	assert.Equal(t, ir.Present[int64](3), subscribers[1].LevelID())

	claim := subscribers[0].Loop("2300")
	require.NotNil(t, claim)
	clm := claim.Segment("CLM")
	assert.Equal(t, "PATIENT001", clm.Text("CLM01").OrElse(""))
	amount, ok := ir.Get[apd.Decimal](clm, "CLM02").Get()
	require.True(t, ok)
	assert.Equal(t, "150.00", amount.Text('f'))
	assert.Equal(t, "B", clm.Composite("CLM05").Text("CLM05-02").OrElse(""))
	assert.Len(t, claim.Loops("2400"), 2)
	assert.Equal(t, "J069", claim.Segment("HI_Diagnosis").Composite("HI01").Text("HI01-02").OrElse(""))

	patients := subscribers[1].Loops("2000C")
	require.Len(t, patients, 1)
	assert.Equal(t, ir.Present[int64](4), patients[0].LevelID())
	assert.Equal(t, ir.Present[int64](3), patients[0].ParentID())
	assert.Equal(t, "TOMMY", patients[0].Loop("2010CA").Segment("NM1").Text("NM104").OrElse(""))
	assert.Empty(t, subscribers[1].Loops("2300"))

	var ids []int64
	for _, lv := range Levels(tx) {
		ids = append(ids, lv.LevelID().OrElse(0))
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	found, ok := FindLevel(tx, 4)
	require.True(t, ok)
	assert.Same(t, patients[0], found)
}

func TestBindTriState(t *testing.T) {
	doc := mustParse(t, fixture837P(), professional(t))
	isa := doc.Root.Segment("ISA")

	// ISA02 is transmitted as blanks: present, not missing.
	assert.Equal(t, ir.Present("          "), isa.Text("ISA02"))

	tx := doc.Transactions()[0]
	submitter := tx.Loop("1000A").Segment("NM1")
	assert.True(t, submitter.Text("NM104").IsMissing(), "empty between separators")
	assert.True(t, submitter.Text("NM112").IsMissing(), "past the last transmitted element")

	second := tx.Loop("2000A").Loops("2000B")[1].Segment("SBR")
	assert.True(t, second.Text("SBR02").IsMissing())
	assert.Equal(t, ir.Present("GRP456"), second.Text("SBR03"))

	assert.Nil(t, tx.Loop("2000A").Loop("2010AB"))
	assert.Equal(t, 0, tx.Loop("2000A").Count("2010AB"))
}

func TestBindRequiredSegmentMissing(t *testing.T) {
	body := edit(t, testutil.Professional837(), "REF*EI*371234567")
	err := parseErr(t, build837P(body), professional(t))

	assert.True(t, IsRequiredSegmentMissing(err), err.Error())
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "REF", de.Tag)
	assert.Contains(t, de.Path, "2010AA/REF_TaxID")
}

func TestBindRequiredLoopMissing(t *testing.T) {
	body := testutil.Professional837()
	for _, seg := range []string{"LX*1", "SV1*HC:99213*100.00*UN*1***1", "DTP*472*D8*20230101", "LX*2", "SV1*HC:87880*50.00*UN*1***1", "DTP*472*D8*20230101"} {
		body = edit(t, body, seg)
	}
	err := parseErr(t, build837P(body), professional(t))

	assert.True(t, IsRequiredSegmentMissing(err), err.Error())
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "LX", de.Tag)
	assert.Regexp(t, `2300\[0\]/2400$`, de.Path)
	assert.Equal(t, "0", de.Details["found"])
}

func TestBindCardinalityExceeded(t *testing.T) {
	body := edit(t, testutil.Professional837(), "REF*EI*371234567",
		"REF*EI*371234567", "PER*IC*A*TE*1", "PER*IC*B*TE*2", "PER*IC*C*TE*3")
	err := parseErr(t, build837P(body), professional(t))

	assert.True(t, IsCardinalityExceeded(err), err.Error())
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "PER", de.Tag)
	// ISA, GS and ST precede the body; the third PER is body segment 12.
	assert.Equal(t, 3+12, de.Index)
	assert.Equal(t, "2", de.Details["max"])
}

func TestBindUnexpectedSegment(t *testing.T) {
	body := edit(t, testutil.Professional837(), "BHT*0019*00*244579*20230101*1253*CH",
		"BHT*0019*00*244579*20230101*1253*CH", "NTE*ADD*NOTE")
	err := parseErr(t, build837P(body), professional(t))

	assert.True(t, IsUnexpectedSegment(err), err.Error())
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NTE", de.Tag)
	assert.Equal(t, 4, de.Index)
}

func TestBindInvalidElementValue(t *testing.T) {
	body := edit(t, testutil.Professional837(), "LX*2", "LX*B")
	err := parseErr(t, build837P(body), professional(t))

	assert.True(t, HasCode(err, ErrCodeInvalidElementValue), err.Error())
	assert.ErrorContains(t, err, "LX01")
}

func TestBindTooManyElements(t *testing.T) {
	body := edit(t, testutil.Professional837(), "LX*2", "LX*2*3")
	err := parseErr(t, build837P(body), professional(t))
	assert.True(t, HasCode(err, ErrCodeInvalidElementValue), err.Error())
}

func TestBindSelectsTransactionByVersion(t *testing.T) {
	root, err := schema.MustBuiltin().Interchange()
	require.NoError(t, err)

	doc := mustParse(t, fixture837P(), root)
	group := doc.Root.Loop("FunctionalGroup")
	assert.Equal(t, 0, group.Count("837I"))
	assert.Equal(t, 1, group.Count("837P"))
}

func TestBindTokenizerErrorsPassThrough(t *testing.T) {
	_, err := Parse(strings.NewReader("ISA*00~"), professional(t))
	require.Error(t, err)
	_, isDocErr := CodeOf(err)
	assert.False(t, isDocErr)
}

func TestBindSharedSchemaConcurrently(t *testing.T) {
	root := professional(t)
	text := fixture837P()

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			_, err := Parse(strings.NewReader(text), root)
			errs <- err
		}()
	}
	for range 8 {
		assert.NoError(t, <-errs)
	}
}
