package harness

import "fmt"

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors lists each failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Batches is the number of decoded 837P transactions.
	Batches int `json:"batches"`

	// Snapshot is the decoded interchange as plain maps and slices.
	Snapshot map[string]any `json:"snapshot,omitempty"`

	// Output is the interchange re-encoded from the decoded batches.
	Output []byte `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	if len(args) == 0 {
		r.Errors = append(r.Errors, format)
	} else {
		r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	}
	r.Pass = false
}
