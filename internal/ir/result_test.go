package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResultError(t *testing.T) {
	r := Errorf("CLM01", "E1", "claim id %s", "missing")
	assert.Equal(t, "[E1] CLM01: claim id missing", r.Error())
	assert.Equal(t, SeverityError, r.Severity)

	noKey := ValidateResult{Code: "E2", Message: "m"}
	assert.Equal(t, "[E2] m", noKey.Error())
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]ValidateResult{Warnf("A", "W1", "warn")}))
	assert.True(t, HasErrors([]ValidateResult{Warnf("A", "W1", "warn"), Errorf("B", "E1", "err")}))
}

func TestErrorsOnlyAndPrefix(t *testing.T) {
	results := []ValidateResult{Warnf("A", "W1", "warn"), Errorf("B", "E1", "err"), Errorf("", "E2", "root")}

	errs := ErrorsOnly(results)
	require.Len(t, errs, 2)

	prefixed := Prefix("Claims", errs)
	assert.Equal(t, FieldKey("Claims/B"), prefixed[0].Key)
	assert.Equal(t, FieldKey("Claims"), prefixed[1].Key)
	assert.Equal(t, FieldKey("B"), errs[0].Key, "Prefix must not mutate its input")
}

func TestSeverityMarshalText(t *testing.T) {
	b, err := SeverityWarning.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "warning", string(b))
	assert.Equal(t, "unknown", Severity(9).String())
}
