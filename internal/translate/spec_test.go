package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
)

func TestValidate_UnmappedField(t *testing.T) {
	spec := New[*record, *record, struct{}]("partial", newRecord, newRecord).Copy("A", "B")

	results := spec.Validate()
	require.Len(t, results, 1)
	assert.Equal(t, ir.FieldKey("C"), results[0].Key)
	assert.Equal(t, ErrUnmappedField, results[0].Code)

	_, err := Compile(spec)
	require.Error(t, err)
	assert.True(t, IsSpecificationError(err))

	spec.Exclude("C")
	assert.Empty(t, spec.Validate())
}

func TestValidate_ConflictingRuleIndependentOfOrder(t *testing.T) {
	set := func(s *Spec[*record, *record, struct{}]) {
		Set(s, "A", func(*Context[*record, *record, struct{}]) (string, error) { return "x", nil })
	}

	first := New[*record, *record, struct{}]("first", newRecord, newRecord)
	set(first)
	first.Copy("A", "B", "C")

	last := New[*record, *record, struct{}]("last", newRecord, newRecord).Copy("A", "B", "C")
	set(last)

	for _, spec := range []*Spec[*record, *record, struct{}]{first, last} {
		t.Run(spec.Name(), func(t *testing.T) {
			results := spec.Validate()
			require.Len(t, results, 1)
			assert.Equal(t, ir.FieldKey("A"), results[0].Key)
			assert.Equal(t, ErrConflictingRule, results[0].Code)
			assert.Contains(t, results[0].Message, "2 rules")
		})
	}
}

func TestValidate_ConflictReportedOncePerKey(t *testing.T) {
	spec := New[*record, *record, struct{}]("triple", newRecord, newRecord).
		Copy("A", "B", "C").
		Exclude("B", "B")

	assert.Equal(t, []string{"B:" + ErrConflictingRule}, codes(spec.Validate()))
}

func TestValidate_InvalidInputReference(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Spec[*counted, *record, struct{}]
		want  string
	}{
		{
			name: "unknown input field",
			build: func() *Spec[*counted, *record, struct{}] {
				return New[*counted, *record, struct{}]("unknown", newCounted, newRecord).
					CopyFrom("Name", "Z").Exclude("Count", "Tags")
			},
			want: "not a field of the input",
		},
		{
			name: "different value type",
			build: func() *Spec[*counted, *record, struct{}] {
				return New[*counted, *record, struct{}]("mismatch", newCounted, newRecord).
					CopyFrom("Name", "A").CopyFrom("Count", "B").Exclude("Tags")
			},
			want: "holds string, result field holds int64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := tt.build().Validate()
			require.Len(t, results, 1)
			assert.Equal(t, ErrInvalidInputReference, results[0].Code)
			assert.Contains(t, results[0].Message, tt.want)
		})
	}
}

func TestValidate_InvalidTargetReference(t *testing.T) {
	spec := New[*counted, *counted, struct{}]("target", newCounted, newCounted).
		Copy("Name", "Tags").
		Exclude("Nope")
	Set(spec, "Count", func(*Context[*counted, *counted, struct{}]) (string, error) { return "1", nil })

	got := codes(spec.Validate())
	assert.ElementsMatch(t, []string{
		"Nope:" + ErrInvalidTargetReference,
		"Count:" + ErrInvalidTargetReference,
	}, got)
}

func TestValidate_ListRuleOnValueSlot(t *testing.T) {
	spec := New[*counted, *counted, struct{}]("lists", newCounted, newCounted).Copy("Count", "Tags")
	SetList(spec, "Name", func(*Context[*counted, *counted, struct{}]) (ir.ValueList[string], error) {
		return ir.PresentList("a"), nil
	})

	results := spec.Validate()
	require.Len(t, results, 1)
	assert.Equal(t, ErrInvalidTargetReference, results[0].Code)
	assert.Contains(t, results[0].Message, "[]string")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	spec := New[*counted, *record, struct{}]("broken", newCounted, newRecord).
		CopyFrom("Name", "Z").
		Exclude("Name")

	got := codes(spec.Validate())
	assert.ElementsMatch(t, []string{
		"Name:" + ErrInvalidInputReference,
		"Name:" + ErrConflictingRule,
		"Count:" + ErrUnmappedField,
		"Tags:" + ErrUnmappedField,
	}, got)

	_, err := Compile(spec)
	var se *SpecificationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "broken", se.Name)
	assert.Len(t, se.Results, 4)
	assert.Contains(t, err.Error(), "4 error(s)")
}

func TestValidate_NilProviders(t *testing.T) {
	spec := New[*node, *tree, struct{}]("nil", newNode, newTree)
	Set[string](spec, "Label", nil)
	Translate[*node, *tree](spec, "Sub", nil, nil)
	TranslateEach[*node, *tree](spec, "Subs", nil, nil)

	for _, r := range spec.Validate() {
		assert.Equal(t, ErrInvalidRule, r.Code, r.Key)
	}
	assert.Len(t, spec.Validate(), 3)
}

func TestValidate_InlinePrefixesNestedKeys(t *testing.T) {
	spec := New[*node, *tree, struct{}]("outer", newNode, newTree).CopyFrom("Label", "Name").Exclude("Subs")
	TranslateInline(spec, "Sub", newNode, newTree,
		func(inner *Spec[*node, *tree, struct{}]) {
			inner.CopyFrom("Label", "Missing").Exclude("Subs")
		},
		func(ctx *Context[*node, *tree, struct{}]) (*tree, bool, error) {
			child, ok := ctx.Input.Child.Get()
			return child, ok, nil
		})

	assert.ElementsMatch(t, []string{
		"Sub/Label:" + ErrInvalidInputReference,
		"Sub/Sub:" + ErrUnmappedField,
	}, codes(spec.Validate()))
}

func TestSpec_Rules(t *testing.T) {
	spec := New[*record, *record, struct{}]("rules", newRecord, newRecord).
		Copy("A").
		CopyFrom("B", "C").
		Exclude("C")

	assert.Equal(t, []RuleInfo{
		{Key: "A", Kind: RuleCopy, Source: "A"},
		{Key: "B", Kind: RuleCopy, Source: "C"},
		{Key: "C", Kind: RuleExclude},
	}, spec.Rules())
	assert.Equal(t, "Translate", RuleTranslate.String())
}
