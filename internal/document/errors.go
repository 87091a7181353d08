package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes binding and writing errors.
type ErrorCode string

const (
	// ErrCodeRequiredSegmentMissing indicates fewer occurrences than the
	// reference minimum.
	ErrCodeRequiredSegmentMissing ErrorCode = "REQUIRED_SEGMENT_MISSING"

	// ErrCodeUnexpectedSegment indicates a segment no open loop can take.
	ErrCodeUnexpectedSegment ErrorCode = "UNEXPECTED_SEGMENT"

	// ErrCodeCardinalityExceeded indicates more occurrences than the
	// reference maximum. Reported at the first excess occurrence.
	ErrCodeCardinalityExceeded ErrorCode = "CARDINALITY_EXCEEDED"

	// ErrCodeInvalidElementValue indicates element text that does not
	// decode as the element's type, or a value that cannot be encoded.
	ErrCodeInvalidElementValue ErrorCode = "INVALID_ELEMENT_VALUE"

	// ErrCodeDanglingHierarchicalParent indicates an HL02 naming no
	// previously bound level.
	ErrCodeDanglingHierarchicalParent ErrorCode = "DANGLING_HIERARCHICAL_PARENT"

	// ErrCodeDuplicateHierarchicalLevel indicates two levels sharing an HL01.
	ErrCodeDuplicateHierarchicalLevel ErrorCode = "DUPLICATE_HIERARCHICAL_LEVEL"

	// ErrCodeUnexpectedHierarchicalLevel indicates an HL03 code the schema
	// does not allow at that point of the tree.
	ErrCodeUnexpectedHierarchicalLevel ErrorCode = "UNEXPECTED_HIERARCHICAL_LEVEL"

	// ErrCodeRequiredEntityMissing indicates a graph that never satisfied a
	// reference minimum was handed to the writer.
	ErrCodeRequiredEntityMissing ErrorCode = "REQUIRED_ENTITY_MISSING"

	// ErrCodeDelimiterInValue indicates a value containing a delimiter.
	ErrCodeDelimiterInValue ErrorCode = "DELIMITER_IN_VALUE"

	// ErrCodeEnvelopeMismatch indicates ISA11 or ISA16 disagreeing with the
	// delimiters used to write the document.
	ErrCodeEnvelopeMismatch ErrorCode = "ENVELOPE_MISMATCH"
)

// Error is a fatal binding or writing failure.
type Error struct {
	Code    ErrorCode
	Message string

	// Tag of the offending segment, when there is one.
	Tag string

	// Index is the zero-based segment position in the source stream, or -1.
	Index int

	// Path is the schema path: loop IDs and reference names joined by "/".
	Path string

	// Details carries code-specific context (level IDs, counts).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	var ctx []string
	if e.Tag != "" {
		ctx = append(ctx, "tag="+e.Tag)
	}
	if e.Index >= 0 {
		ctx = append(ctx, fmt.Sprintf("segment=%d", e.Index))
	}
	if e.Path != "" {
		ctx = append(ctx, "path="+e.Path)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	return b.String()
}

// CodeOf returns the document error code anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// HasCode reports whether err is a document error with code.
func HasCode(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}

// IsRequiredSegmentMissing reports whether err is a missing required segment.
func IsRequiredSegmentMissing(err error) bool {
	return HasCode(err, ErrCodeRequiredSegmentMissing)
}

// IsUnexpectedSegment reports whether err is an unexpected segment.
func IsUnexpectedSegment(err error) bool {
	return HasCode(err, ErrCodeUnexpectedSegment)
}

// IsCardinalityExceeded reports whether err is a cardinality violation.
func IsCardinalityExceeded(err error) bool {
	return HasCode(err, ErrCodeCardinalityExceeded)
}

// IsHierarchyError reports whether err is any HL linkage error.
func IsHierarchyError(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeDanglingHierarchicalParent, ErrCodeDuplicateHierarchicalLevel, ErrCodeUnexpectedHierarchicalLevel:
		return true
	}
	return false
}

func newError(code ErrorCode, path string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Index: -1, Path: path}
}
