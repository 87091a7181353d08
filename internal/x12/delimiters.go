package x12

import (
	"fmt"
	"strings"
)

// Interchange header geometry.
const (
	ISALength         = 106
	isaElementPos     = 3
	isaRepetitionPos  = 82
	isaVersionStart   = 84
	isaVersionEnd     = 89
	isaComponentPos   = 104
	isaTerminatorPos  = 105
	isaElementCount   = 16
	repetitionVersion = "00501"
)

// Delimiters is the separator set of one interchange.
type Delimiters struct {
	Element   byte
	Component byte

	// Repetition is zero when the interchange predates 00501 and does not
	// declare a repetition separator.
	Repetition byte

	Segment byte

	// Suffix is the line break that follows each segment terminator, if any.
	Suffix string
}

// DefaultDelimiters returns the common 5010 delimiter set with no line
// suffix.
func DefaultDelimiters() Delimiters {
	return Delimiters{Element: '*', Component: ':', Repetition: '^', Segment: '~'}
}

// Validate checks the separators are usable: set, pairwise distinct, and
// not alphanumeric.
func (d Delimiters) Validate() error {
	named := []struct {
		name string
		b    byte
	}{
		{"element", d.Element},
		{"component", d.Component},
		{"segment", d.Segment},
	}
	if d.Repetition != 0 {
		named = append(named, struct {
			name string
			b    byte
		}{"repetition", d.Repetition})
	}

	seen := make(map[byte]string, len(named))
	for _, n := range named {
		if n.b == 0 {
			return fmt.Errorf("%s separator is not set", n.name)
		}
		if isAlnum(n.b) {
			return fmt.Errorf("%s separator %q is alphanumeric", n.name, n.b)
		}
		if other, dup := seen[n.b]; dup {
			return fmt.Errorf("%s and %s separators are both %q", other, n.name, n.b)
		}
		seen[n.b] = n.name
	}
	if strings.Trim(d.Suffix, "\r\n") != "" {
		return fmt.Errorf("segment suffix %q may only contain line breaks", d.Suffix)
	}
	return nil
}

// Structural reports whether b is one of the declared separators.
func (d Delimiters) Structural(b byte) bool {
	return b == d.Element || b == d.Component || b == d.Segment || (d.Repetition != 0 && b == d.Repetition)
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// readHeader extracts delimiters from a complete interchange header.
func readHeader(header []byte) (Delimiters, error) {
	if len(header) < ISALength {
		return Delimiters{}, fmt.Errorf("interchange header is %d bytes, need %d", len(header), ISALength)
	}
	if string(header[:3]) != "ISA" {
		return Delimiters{}, fmt.Errorf("stream does not start with ISA")
	}

	d := Delimiters{
		Element:   header[isaElementPos],
		Component: header[isaComponentPos],
		Segment:   header[isaTerminatorPos],
	}
	if string(header[isaVersionStart:isaVersionEnd]) >= repetitionVersion {
		d.Repetition = header[isaRepetitionPos]
	}
	if err := d.Validate(); err != nil {
		return Delimiters{}, err
	}

	// Fixed-width fields: the element separator must appear exactly where
	// the widths put it.
	if n := strings.Count(string(header[:isaTerminatorPos]), string(d.Element)); n != isaElementCount {
		return Delimiters{}, fmt.Errorf("interchange header has %d element separators, want %d", n, isaElementCount)
	}
	if header[isaComponentPos-1] != d.Element {
		return Delimiters{}, fmt.Errorf("interchange header is not fixed width")
	}
	return d, nil
}
