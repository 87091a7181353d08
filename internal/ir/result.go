package ir

import (
	"fmt"
	"strings"
)

// Severity ranks a ValidateResult.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidateResult is one finding from schema, document, or specification
// validation. Key is the field (or schema path) the finding is about.
type ValidateResult struct {
	Key      FieldKey `json:"key"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Error implements the error interface so a single result can be returned
// where an error is expected.
func (r ValidateResult) Error() string {
	if r.Key == "" {
		return fmt.Sprintf("[%s] %s", r.Code, r.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", r.Code, r.Key, r.Message)
}

// Errorf builds an error-severity result.
func Errorf(key FieldKey, code, format string, args ...any) ValidateResult {
	return ValidateResult{Key: key, Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity result.
func Warnf(key FieldKey, code, format string, args ...any) ValidateResult {
	return ValidateResult{Key: key, Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any result has error severity.
func HasErrors(results []ValidateResult) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorsOnly filters results down to error severity.
func ErrorsOnly(results []ValidateResult) []ValidateResult {
	var out []ValidateResult
	for _, r := range results {
		if r.Severity == SeverityError {
			out = append(out, r)
		}
	}
	return out
}

// Prefix qualifies every result key with path, joined by "/".
func Prefix(path FieldKey, results []ValidateResult) []ValidateResult {
	out := make([]ValidateResult, len(results))
	for i, r := range results {
		if r.Key == "" {
			r.Key = path
		} else {
			r.Key = path + "/" + r.Key
		}
		out[i] = r
	}
	return out
}

// JoinResults renders results one per line.
func JoinResults(results []ValidateResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Error()
	}
	return strings.Join(parts, "\n")
}
