package x12

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes wire-level errors.
type ErrorCode string

const (
	// ErrCodeMalformedEnvelope indicates the interchange header is shorter
	// than the fixed declaration width or does not declare usable delimiters.
	ErrCodeMalformedEnvelope ErrorCode = "MALFORMED_ENVELOPE"

	// ErrCodeUnterminatedSegment indicates the stream ended mid-segment.
	ErrCodeUnterminatedSegment ErrorCode = "UNTERMINATED_SEGMENT"

	// ErrCodeMalformedSegment indicates a segment with no tag.
	ErrCodeMalformedSegment ErrorCode = "MALFORMED_SEGMENT"

	// ErrCodeDelimiterInValue indicates a value that would change the
	// segment structure if written.
	ErrCodeDelimiterInValue ErrorCode = "DELIMITER_IN_VALUE"
)

// Error is a wire-level failure with its position in the stream.
type Error struct {
	Code    ErrorCode
	Message string

	// Tag of the offending segment, when known.
	Tag string

	// Index is the zero-based segment position.
	Index int

	// Offset is the byte offset of the segment start.
	Offset int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s: %s (segment %d %s, offset %d)", e.Code, e.Message, e.Index, e.Tag, e.Offset)
	}
	return fmt.Sprintf("%s: %s (segment %d, offset %d)", e.Code, e.Message, e.Index, e.Offset)
}

// CodeOf returns the code of an x12 error anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Code, true
	}
	return "", false
}

// IsMalformedEnvelope reports whether err is a malformed envelope error.
func IsMalformedEnvelope(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeMalformedEnvelope
}

// IsUnterminatedSegment reports whether err is an unterminated segment error.
func IsUnterminatedSegment(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeUnterminatedSegment
}

// IsDelimiterInValue reports whether err is a delimiter-in-value error.
func IsDelimiterInValue(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeDelimiterInValue
}

// ErrNotRestartable is returned by Reset when the source cannot seek.
var ErrNotRestartable = errors.New("x12: source does not support Reset")
