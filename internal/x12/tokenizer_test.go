package x12

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testISA = "ISA*00*          *00*          *ZZ*SUBMITTERID    *ZZ*RECEIVERID     *230101*1253*^*00501*000000905*0*T*:~"

const testInterchange = testISA +
	"GS*HC*SUBMITTERID*RECEIVERID*20230101*1253*905*X*005010X222A1~" +
	"ST*837*0001*005010X222A1~" +
	"HI*ABK:J449*ABF:R05~" +
	"REF*XX*A^B^C~" +
	"SE*4*0001~" +
	"GE*1*905~" +
	"IEA*1*000000905~"

func TestTokenizerDiscoversDelimiters(t *testing.T) {
	segs, d, err := Tokenize([]byte(testInterchange))
	require.NoError(t, err)

	assert.Equal(t, byte('*'), d.Element)
	assert.Equal(t, byte(':'), d.Component)
	assert.Equal(t, byte('^'), d.Repetition)
	assert.Equal(t, byte('~'), d.Segment)
	assert.Equal(t, "", d.Suffix)

	tags := make([]string, len(segs))
	for i, s := range segs {
		tags[i] = s.Tag
	}
	assert.Equal(t, []string{"ISA", "GS", "ST", "HI", "REF", "SE", "GE", "IEA"}, tags)
}

func TestTokenizerISAElementsNotSplit(t *testing.T) {
	segs, _, err := Tokenize([]byte(testInterchange))
	require.NoError(t, err)

	isa := segs[0]
	require.Len(t, isa.Elements, 16)
	assert.Equal(t, "^", isa.Value(11))
	assert.Nil(t, isa.Element(11).Repeats)
	assert.Equal(t, ":", isa.Value(16))
	assert.Nil(t, isa.Element(16).Components)
	assert.Equal(t, "SUBMITTERID    ", isa.Value(6))
}

func TestTokenizerSplitsComponentsAndRepeats(t *testing.T) {
	segs, _, err := Tokenize([]byte(testInterchange))
	require.NoError(t, err)

	hi := segs[3]
	assert.Equal(t, []string{"ABK", "J449"}, hi.Element(1).Components)
	assert.Equal(t, []string{"ABF", "R05"}, hi.Element(2).Parts())

	ref := segs[4]
	assert.Equal(t, []string{"A", "B", "C"}, ref.Element(2).Repeats)
	assert.Equal(t, []string{"XX"}, ref.Element(1).Repetitions())
}

func TestTokenizerPositions(t *testing.T) {
	segs, _, err := Tokenize([]byte(testInterchange))
	require.NoError(t, err)

	assert.Equal(t, 0, segs[0].Index)
	assert.Equal(t, int64(0), segs[0].Offset)
	assert.Equal(t, 1, segs[1].Index)
	assert.Equal(t, int64(ISALength), segs[1].Offset)
	assert.Equal(t, "GS", testInterchange[segs[1].Offset:segs[1].Offset+2])
	assert.Equal(t, "ST", testInterchange[segs[2].Offset:segs[2].Offset+2])
}

func TestTokenizerRecordsLineSuffix(t *testing.T) {
	text := strings.ReplaceAll(testInterchange, "~", "~\r\n")
	segs, d, err := Tokenize([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, "\r\n", d.Suffix)
	require.Len(t, segs, 8)
	assert.Equal(t, "GS", segs[1].Tag)
	assert.Equal(t, "IEA", segs[7].Tag)
}

func TestTokenizerPre5010HasNoRepetition(t *testing.T) {
	isa := strings.Replace(testISA, "*^*00501", "*U*00401", 1)
	text := isa + "ST*837*0001~REF*XX*A^B~SE*3*0001~"

	segs, d, err := Tokenize([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, byte(0), d.Repetition)
	assert.Equal(t, "A^B", segs[2].Value(2))
	assert.Nil(t, segs[2].Element(2).Repeats)
}

func TestTokenizerMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"short header", testISA[:60]},
		{"not ISA", "GS" + testISA[2:]},
		{"not fixed width", strings.Replace(testISA, "SUBMITTERID    ", "SUBMITTERID", 1) + "    "},
		{"duplicate delimiters", testISA[:104] + "*~"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Tokenize([]byte(tt.text))
			require.Error(t, err)
			assert.True(t, IsMalformedEnvelope(err), "got %v", err)
		})
	}
}

func TestTokenizerUnterminatedSegment(t *testing.T) {
	_, _, err := Tokenize([]byte(testISA + "GS*HC*A~ST*837*0001"))
	require.Error(t, err)
	assert.True(t, IsUnterminatedSegment(err))

	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "ST", xe.Tag)
	assert.Equal(t, 2, xe.Index)
}

func TestTokenizerTrailingLineBreakIsNotASegment(t *testing.T) {
	segs, _, err := Tokenize([]byte(testISA + "IEA*1*000000905~\n\n"))
	require.NoError(t, err)
	assert.Len(t, segs, 2)
}

func TestTokenizerEmptySegment(t *testing.T) {
	_, _, err := Tokenize([]byte(testISA + "~"))
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMalformedSegment, code)
}

func TestTokenizerWithDelimiters(t *testing.T) {
	d := Delimiters{Element: '|', Component: '>', Segment: '\''}
	segs, got, err := Tokenize([]byte("ST|837|0001'HI|ABK>J449'"), WithDelimiters(d))
	require.NoError(t, err)
	assert.Equal(t, d, got)
	require.Len(t, segs, 2)
	assert.Equal(t, []string{"ABK", "J449"}, segs[1].Element(1).Components)
}

func TestTokenizerIsLazy(t *testing.T) {
	r := &countingReader{r: strings.NewReader(testInterchange)}
	tok := NewTokenizer(r)
	assert.Equal(t, 0, r.n, "constructing must not read")

	_, err := tok.Next()
	require.NoError(t, err)
	assert.Greater(t, r.n, 0)
}

func TestTokenizerReset(t *testing.T) {
	tok := NewTokenizer(bytes.NewReader([]byte(testInterchange)))

	var first []string
	for seg, err := range tok.All() {
		require.NoError(t, err)
		first = append(first, seg.Tag)
	}
	_, err := tok.Next()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, tok.Reset())
	var second []string
	for seg, err := range tok.All() {
		require.NoError(t, err)
		second = append(second, seg.Tag)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, 0, tokIndexAfterReset(t))
}

func TestTokenizerResetRequiresSeeker(t *testing.T) {
	tok := NewTokenizer(&countingReader{r: strings.NewReader(testInterchange)})
	assert.ErrorIs(t, tok.Reset(), ErrNotRestartable)
}

func TestTokenizerAllStopsEarly(t *testing.T) {
	tok := NewTokenizer(strings.NewReader(testInterchange))
	count := 0
	for range tok.All() {
		count++
		if count == 2 {
			break
		}
	}
	seg, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, "ST", seg.Tag, "breaking out of All leaves the rest unread")
}

func tokIndexAfterReset(t *testing.T) int {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(testInterchange))
	_, err := tok.Next()
	require.NoError(t, err)
	require.NoError(t, tok.Reset())
	seg, err := tok.Next()
	require.NoError(t, err)
	return seg.Index
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
