package translate

import (
	"errors"
	"fmt"

	"github.com/GeekSage/Machete/internal/ir"
)

// Specification validation codes (E400-E499).
const (
	ErrUnmappedField          = "E401" // result field with no rule
	ErrConflictingRule        = "E402" // result field claimed by more than one rule
	ErrInvalidInputReference  = "E403" // copy source missing on the input or of another type
	ErrInvalidTargetReference = "E404" // rule key missing on the result or typed for another slot
	ErrInvalidRule            = "E405" // rule without a provider or nested translator
)

// SpecificationError reports a Spec that failed validation. Results holds
// every finding, warnings included.
type SpecificationError struct {
	Name    string
	Results []ir.ValidateResult
}

// Error implements the error interface.
func (e *SpecificationError) Error() string {
	errs := ir.ErrorsOnly(e.Results)
	return fmt.Sprintf("specification %s has %d error(s):\n%s", e.Name, len(errs), ir.JoinResults(errs))
}

// IsSpecificationError reports whether err is a failed compilation.
func IsSpecificationError(err error) bool {
	var se *SpecificationError
	return errors.As(err, &se)
}

// TranslationFailure reports a rule that failed while translating. Key is
// the result field of the failing rule and Path the key path from the
// outermost translation ("Subscribers[1]/Claims[0]/ClaimID").
type TranslationFailure struct {
	Spec  string
	Key   ir.FieldKey
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *TranslationFailure) Error() string {
	return fmt.Sprintf("translate %s: field %s: %v", e.Spec, e.Path, e.Cause)
}

// Unwrap returns the provider error.
func (e *TranslationFailure) Unwrap() error {
	return e.Cause
}

// IsTranslationFailure reports whether err is a failed translation.
func IsTranslationFailure(err error) bool {
	var tf *TranslationFailure
	return errors.As(err, &tf)
}

// PanicError carries a value recovered from a panicking provider.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("provider panicked: %v", e.Value)
}
