package x12

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithDelimiters supplies the delimiter set up front, for streams that do
// not start with an interchange header (a bare transaction set, for
// example).
func WithDelimiters(d Delimiters) Option {
	return func(t *Tokenizer) {
		t.preset = &d
	}
}

// Tokenizer splits a stream into raw segments.
//
// It reads lazily: nothing is consumed until the first call to Next. A
// Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	src    io.Reader
	start  int64
	preset *Delimiters

	r      *bufio.Reader
	delims Delimiters
	ready  bool
	index  int
	offset int64
	suffix bool
}

// NewTokenizer returns a Tokenizer over r.
func NewTokenizer(r io.Reader, opts ...Option) *Tokenizer {
	t := &Tokenizer{src: r}
	for _, opt := range opts {
		opt(t)
	}
	if s, ok := r.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil {
			t.start = pos
		}
	}
	t.r = bufio.NewReader(r)
	return t
}

// Tokenize reads every segment from data.
func Tokenize(data []byte, opts ...Option) ([]Segment, Delimiters, error) {
	t := NewTokenizer(bytes.NewReader(data), opts...)
	var out []Segment
	for seg, err := range t.All() {
		if err != nil {
			return nil, Delimiters{}, err
		}
		out = append(out, seg)
	}
	return out, t.Delimiters(), nil
}

// Delimiters returns the delimiter set in effect. Before the first call to
// Next it is only meaningful when supplied with WithDelimiters.
func (t *Tokenizer) Delimiters() Delimiters {
	if !t.ready && t.preset != nil {
		return *t.preset
	}
	return t.delims
}

// Next returns the next raw segment, or io.EOF after the last one.
func (t *Tokenizer) Next() (Segment, error) {
	if !t.ready {
		return t.first()
	}

	t.skipLineBreaks()
	start := t.offset
	body, err := t.r.ReadBytes(t.delims.Segment)
	t.offset += int64(len(body))
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return Segment{}, err
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return Segment{}, io.EOF
		}
		return Segment{}, &Error{
			Code:    ErrCodeUnterminatedSegment,
			Message: fmt.Sprintf("stream ended without %q terminator", t.delims.Segment),
			Tag:     tagOf(body, t.delims.Element),
			Index:   t.index,
			Offset:  start,
		}
	}

	body = body[:len(body)-1]
	seg, err := t.split(body, start)
	if err != nil {
		return Segment{}, err
	}
	t.captureSuffix()
	return seg, nil
}

// first resolves the delimiters and returns the first segment.
func (t *Tokenizer) first() (Segment, error) {
	t.ready = true
	if t.preset != nil {
		if err := t.preset.Validate(); err != nil {
			return Segment{}, &Error{Code: ErrCodeMalformedEnvelope, Message: err.Error()}
		}
		t.delims = *t.preset
		t.suffix = t.delims.Suffix != ""
		return t.Next()
	}

	header := make([]byte, ISALength)
	n, err := io.ReadFull(t.r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Segment{}, err
	}
	d, derr := readHeader(header[:n])
	if derr != nil {
		return Segment{}, &Error{Code: ErrCodeMalformedEnvelope, Message: derr.Error(), Tag: "ISA"}
	}
	t.delims = d
	t.offset = int64(n)

	// ISA elements are fixed width and carry the separators themselves, so
	// they are never split into components or repetitions.
	fields := strings.Split(string(header[:isaTerminatorPos]), string(d.Element))
	seg := Segment{Tag: fields[0], Index: t.index}
	seg.Elements = make([]Element, len(fields)-1)
	for i, f := range fields[1:] {
		seg.Elements[i] = Simple(f)
	}
	t.index++
	t.captureSuffix()
	return seg, nil
}

func (t *Tokenizer) split(body []byte, start int64) (Segment, error) {
	fields := strings.Split(string(body), string(t.delims.Element))
	tag := strings.TrimSpace(fields[0])
	if tag == "" {
		return Segment{}, &Error{
			Code:    ErrCodeMalformedSegment,
			Message: "segment has no tag",
			Index:   t.index,
			Offset:  start,
		}
	}
	seg := Segment{Tag: tag, Index: t.index, Offset: start}
	seg.Elements = make([]Element, len(fields)-1)
	for i, f := range fields[1:] {
		seg.Elements[i] = splitElement(f, t.delims)
	}
	t.index++
	return seg, nil
}

// captureSuffix records the line break following the first terminator and
// consumes it.
func (t *Tokenizer) captureSuffix() {
	brk := t.lineBreaks()
	if !t.suffix {
		t.delims.Suffix = brk
		t.suffix = true
	}
}

func (t *Tokenizer) skipLineBreaks() {
	t.lineBreaks()
}

func (t *Tokenizer) lineBreaks() string {
	var b strings.Builder
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return b.String()
		}
		if c != '\r' && c != '\n' {
			_ = t.r.UnreadByte()
			return b.String()
		}
		b.WriteByte(c)
		t.offset++
	}
}

// Reset rewinds to the start of the stream. It fails with
// ErrNotRestartable when the source is not an io.Seeker.
func (t *Tokenizer) Reset() error {
	s, ok := t.src.(io.Seeker)
	if !ok {
		return ErrNotRestartable
	}
	if _, err := s.Seek(t.start, io.SeekStart); err != nil {
		return fmt.Errorf("x12: reset: %w", err)
	}
	t.r.Reset(t.src)
	t.ready = false
	t.delims = Delimiters{}
	t.index = 0
	t.offset = 0
	t.suffix = false
	return nil
}

// All yields every remaining segment. Iteration stops after the first
// error, which is yielded with a zero Segment.
func (t *Tokenizer) All() iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		for {
			seg, err := t.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Segment{}, err)
				return
			}
			if !yield(seg, nil) {
				return
			}
		}
	}
}

func tagOf(body []byte, sep byte) string {
	if i := bytes.IndexByte(body, sep); i >= 0 {
		return strings.TrimSpace(string(body[:i]))
	}
	return strings.TrimSpace(string(body))
}
