package document

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/x12"
)

func TestWriteRoundTripGolden(t *testing.T) {
	text := fixture837P()
	doc := mustParse(t, text, professional(t))

	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, text, string(out))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "837p_roundtrip", out)
}

func TestWriteBindIsStructurallyIdentical(t *testing.T) {
	root := professional(t)
	doc := mustParse(t, fixture837P(), root)

	out, err := Marshal(doc)
	require.NoError(t, err)
	again := mustParse(t, string(out), root)

	want, err := ir.MarshalCanonical(ir.Snapshot(doc.Root))
	require.NoError(t, err)
	got, err := ir.MarshalCanonical(ir.Snapshot(again.Root))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestWriteAuthoredLevel(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1", "HL*2*1*22*0"), levelSchema())
	root := doc.Transactions()[0].Loop("2000A")

	child, err := root.NewLoop("2000B")
	require.NoError(t, err)
	hl := child.HL()
	require.NotNil(t, hl)
	assert.Equal(t, ir.Present("22"), hl.Text("HL03"), "qualifier value pre-filled")
	require.NoError(t, ir.Put(hl, "HL01", ir.Present[int64](3)))
	require.NoError(t, ir.Put(hl, "HL02", ir.Present[int64](1)))

	require.NoError(t, SealEnvelope(doc))
	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, levelDoc("HL*1**20*1", "HL*2*1*22*0", "HL*3*1*22"), string(out))
	assert.Empty(t, ir.ErrorsOnly(Check(doc)))
}

func TestWriteSkipsEmptyEntities(t *testing.T) {
	text := levelDoc("HL*1**20*1")
	doc := mustParse(t, text, levelSchema())
	root := doc.Transactions()[0].Loop("2000A")

	empty := NewLayout(root.Descriptor().Children[1].Loop)
	require.NoError(t, root.AddLoop("2000B", empty))

	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, text, string(out))
}

func TestWriteRequiredEntityMissing(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	tx := doc.Transactions()[0]
	slot, ok := ir.Lookup(tx, "2000A")
	require.True(t, ok)
	slot.SetMissing()

	_, err := Marshal(doc)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeRequiredEntityMissing), err.Error())
	assert.ErrorContains(t, err, "2000A")
}

func TestWriteRequiredEntityMissingWhenOnlyEmpty(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	iea := doc.Root.Segment("IEA")
	for _, fs := range iea.Slots() {
		fs.Slot.SetMissing()
	}

	_, err := Marshal(doc)
	assert.True(t, HasCode(err, ErrCodeRequiredEntityMissing), "an all-Missing segment counts as absent")
}

func TestWriteDelimiterInValue(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	st := doc.Transactions()[0].Segment("ST")
	require.NoError(t, st.SetText("ST02", "00~1"))

	_, err := Marshal(doc)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeDelimiterInValue), err.Error())
	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ST", de.Tag)
}

func TestWriteEnvelopeMismatch(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	doc.Delimiters.Component = '>'

	_, err := Marshal(doc)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeEnvelopeMismatch), err.Error())
}

func TestWriteWithOtherDelimiters(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1"), levelSchema())
	require.NoError(t, doc.Root.Segment("ISA").SetText("ISA16", ">"))
	require.NoError(t, doc.Root.Segment("ISA").SetText("ISA11", "!"))
	doc.Delimiters = x12.Delimiters{Element: '|', Component: '>', Repetition: '!', Segment: '~'}

	out, err := Marshal(doc)
	require.NoError(t, err)
	again := mustParse(t, string(out), levelSchema())
	assert.Equal(t, byte('|'), again.Delimiters.Element)
	assert.Equal(t, ir.Present[int64](1), again.Transactions()[0].Loop("2000A").LevelID())
}

func TestWriteLayoutOutsideEnvelope(t *testing.T) {
	doc := mustParse(t, levelDoc("HL*1**20*1", "HL*2*1*22*0"), levelSchema())

	var buf bytes.Buffer
	require.NoError(t, WriteLayout(&buf, doc.Transactions()[0], x12.DefaultDelimiters()))
	assert.Equal(t, "ST*837*0001*005010X222A1~HL*1**20*1~HL*2*1*22*0~SE*4*0001~", buf.String())
}

func TestWriteDefaultsDelimiters(t *testing.T) {
	doc := New(levelSchema(), x12.Delimiters{})
	_, err := Marshal(doc)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeRequiredEntityMissing), "empty document fails on ISA, not on delimiters")
}
