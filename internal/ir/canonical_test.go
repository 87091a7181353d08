package ir

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOmitsMissing(t *testing.T) {
	e := &testEntity{Name: Present("")}
	snap := Snapshot(e)

	assert.Equal(t, map[string]any{"Name": ""}, snap, "Present empty string kept, Missing omitted")
}

func TestSnapshotNested(t *testing.T) {
	e := &testEntity{
		Name:  Present("root"),
		Count: Present(int64(2)),
		Tags:  PresentList("a", "b"),
		Child: Present(&testEntity{Name: Present("leaf")}),
	}

	snap := Snapshot(e)
	assert.Equal(t, "root", snap["Name"])
	assert.Equal(t, int64(2), snap["Count"])
	assert.Equal(t, []any{"a", "b"}, snap["Tags"])
	assert.Equal(t, map[string]any{"Name": "leaf"}, snap["Child"])
}

func TestSnapshotNilChild(t *testing.T) {
	var nilChild *testEntity
	e := &testEntity{Child: Present(nilChild)}
	assert.Equal(t, map[string]any{"Child": map[string]any{}}, Snapshot(e))
}

func TestSnapshotScalars(t *testing.T) {
	d, _, err := apd.NewFromString("1250.50")
	require.NoError(t, err)

	assert.Equal(t, "1250.50", snapshotValue(*d))
	assert.Equal(t, "2023-01-31", snapshotValue(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(3), snapshotValue(3))
}

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{"b": int64(1), "a": "x", "c": []any{true, "y"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,"y"]}`, string(b))
}

func TestMarshalCanonicalRFC8785KeyOrder(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{"a": int64(1), "A": int64(2), "aa": int64(3), "AA": int64(4)})
	require.NoError(t, err)
	assert.Equal(t, `{"A":2,"AA":4,"a":1,"aa":3}`, string(b))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	b, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(b))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	b, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(b))

	b, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(b), "escaped backslash must survive")
}

func TestMarshalCanonicalNFC(t *testing.T) {
	b, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(b))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(1.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")

	_, err = MarshalCanonical(struct{}{})
	require.Error(t, err)
}

func TestMarshalCanonicalEntity(t *testing.T) {
	b, err := MarshalCanonical(&testEntity{Name: Present("n"), Tags: PresentList("t")})
	require.NoError(t, err)
	assert.Equal(t, `{"Name":"n","Tags":["t"]}`, string(b))
}
