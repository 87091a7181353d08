package translate

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
)

type nodeCtx = Context[*node, *tree, string]

func childOf(ctx *nodeCtx) (*tree, bool, error) {
	child, ok := ctx.Input.Child.Get()
	return child, ok, nil
}

func childrenOf(ctx *nodeCtx) ([]*tree, bool, error) {
	if ctx.Input.Children.IsMissing() {
		return nil, false, nil
	}
	return ctx.Input.Children.Items(), true, nil
}

// upper labels each node with its upper-cased name and the state suffix,
// recursing through Child and Children.
func upper(t *testing.T) *Translator[*node, *tree, string] {
	t.Helper()
	var label func(s *Spec[*node, *tree, string])
	label = func(s *Spec[*node, *tree, string]) {
		Set(s, "Label", func(ctx *nodeCtx) (string, error) {
			name, ok := ctx.Input.Name.Get()
			if !ok {
				return "", errors.New("name is missing")
			}
			return strings.ToUpper(name) + ctx.State, nil
		})
	}

	leafSpec := New[*node, *tree, string]("leaf", newNode, newTree).Exclude("Sub", "Subs")
	label(leafSpec)
	leaves, err := Compile(leafSpec)
	require.NoError(t, err)

	spec := New[*node, *tree, string]("upper", newNode, newTree)
	label(spec)
	Translate(spec, "Sub", leaves, childOf)
	TranslateEach(spec, "Subs", leaves, childrenOf)
	tr, err := Compile(spec)
	require.NoError(t, err)
	return tr
}

func TestTranslate_CopyAndExclude(t *testing.T) {
	tr := MustCompile(New[*record, *record, struct{}]("copy", newRecord, newRecord).
		CopyFrom("A", "B").
		Copy("B").
		Exclude("C"))

	in := newRecord()
	in.A.Set("a")
	in.B.Set("")
	in.C.Set("c")

	out, err := tr.Translate(in, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, ir.Present(""), out.A)
	assert.Equal(t, ir.Present(""), out.B)
	assert.True(t, out.C.IsMissing())

	// input untouched
	assert.Equal(t, ir.Present("a"), in.A)
	assert.Equal(t, ir.Present("c"), in.C)
}

func TestTranslate_CopyKeepsMissing(t *testing.T) {
	tr := MustCompile(New[*record, *record, struct{}]("missing", newRecord, newRecord).Copy("A", "B", "C"))

	out, err := tr.Translate(newRecord(), struct{}{})
	require.NoError(t, err)
	assert.True(t, ir.IsEmpty(out))
}

func TestTranslate_SetVariants(t *testing.T) {
	spec := New[*counted, *record, int64]("set", newCounted, newRecord)
	SetOptional(spec, "Name", func(ctx *Context[*counted, *record, int64]) (string, bool, error) {
		a, ok := ctx.Input.A.Get()
		return a, ok, nil
	})
	// reads the result of the earlier rule
	Set(spec, "Count", func(ctx *Context[*counted, *record, int64]) (int64, error) {
		return int64(len(ctx.Result.Name.OrElse(""))) + ctx.State, nil
	})
	SetList(spec, "Tags", func(ctx *Context[*counted, *record, int64]) (ir.ValueList[string], error) {
		if ctx.Input.B.IsMissing() {
			return ir.MissingList[string](), nil
		}
		return ir.PresentList(strings.Split(ctx.Input.B.OrElse(""), ",")...), nil
	})
	tr := MustCompile(spec)

	in := newRecord()
	in.A.Set("abc")
	in.B.Set("x,y")
	out, err := tr.Translate(in, 10)
	require.NoError(t, err)
	assert.Equal(t, ir.Present("abc"), out.Name)
	assert.Equal(t, ir.Present(int64(13)), out.Count)
	assert.Equal(t, []string{"x", "y"}, out.Tags.Items())

	out, err = tr.Translate(newRecord(), 0)
	require.NoError(t, err)
	assert.True(t, out.Name.IsMissing())
	assert.Equal(t, ir.Present(int64(0)), out.Count)
	assert.True(t, out.Tags.IsMissing())
}

func TestTranslate_Nested(t *testing.T) {
	tr := upper(t)

	in := leaf("root")
	in.Child.Set(leaf("child"))
	in.Children.Append(leaf("a"), leaf("b"))

	out, err := tr.Translate(in, "!")
	require.NoError(t, err)
	assert.Equal(t, ir.Present("ROOT!"), out.Label)
	sub, ok := out.Sub.Get()
	require.True(t, ok)
	assert.Equal(t, ir.Present("CHILD!"), sub.Label)
	require.Equal(t, 2, out.Subs.Len())
	assert.Equal(t, ir.Present("B!"), out.Subs.Items()[1].Label)

	bare, err := tr.Translate(leaf("bare"), "")
	require.NoError(t, err)
	assert.True(t, bare.Sub.IsMissing())
	assert.True(t, bare.Subs.IsMissing())
}

func TestTranslate_FailureCarriesPath(t *testing.T) {
	tr := upper(t)

	in := leaf("root")
	in.Children.Append(leaf("a"), newTree())

	out, err := tr.Translate(in, "")
	require.Error(t, err)
	assert.Nil(t, out)

	var tf *TranslationFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, "leaf", tf.Spec)
	assert.Equal(t, ir.FieldKey("Label"), tf.Key)
	assert.Equal(t, "Subs[1]/Label", tf.Path)
	assert.EqualError(t, tf.Cause, "name is missing")
	assert.True(t, IsTranslationFailure(err))
}

func TestTranslate_ProviderErrorUnwraps(t *testing.T) {
	sentinel := errors.New("lookup failed")
	spec := New[*record, *record, struct{}]("fail", newRecord, newRecord).Copy("A", "B")
	Set(spec, "C", func(*Context[*record, *record, struct{}]) (string, error) {
		return "", fmt.Errorf("payer: %w", sentinel)
	})

	_, err := MustCompile(spec).Translate(newRecord(), struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "translate fail: field C")
}

func TestTranslate_PanicBecomesFailure(t *testing.T) {
	spec := New[*record, *record, struct{}]("panics", newRecord, newRecord).Copy("A", "C")
	Set(spec, "B", func(ctx *Context[*record, *record, struct{}]) (string, error) {
		var m map[string]string
		m["boom"] = ctx.Input.A.OrElse("")
		return "", nil
	})

	_, err := MustCompile(spec).Translate(newRecord(), struct{}{})
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "provider panicked")
}

func TestTranslate_ParentScope(t *testing.T) {
	spec := New[*node, *tree, string]("scoped", newNode, newTree).CopyFrom("Label", "Name").Exclude("Subs")
	TranslateInline(spec, "Sub", newNode, newTree,
		func(inner *Spec[*node, *tree, string]) {
			inner.Exclude("Sub", "Subs")
			Set(inner, "Label", func(ctx *nodeCtx) (string, error) {
				parent := ctx.Parent()
				if parent == nil {
					return "", errors.New("no parent")
				}
				outer := parent.Input.(*tree)
				return outer.Name.OrElse("") + "/" + ctx.Input.Name.OrElse("") + "@" + ctx.Path(), nil
			})
		},
		childOf)
	tr, err := Compile(spec)
	require.NoError(t, err)

	in := leaf("outer")
	in.Child.Set(leaf("inner"))
	out, err := tr.Translate(in, "")
	require.NoError(t, err)
	sub, _ := out.Sub.Get()
	assert.Equal(t, ir.Present("outer/inner@Sub"), sub.Label)
}

func TestTranslate_InlineEach(t *testing.T) {
	spec := New[*node, *tree, string]("each", newNode, newTree).Exclude("Label", "Sub")
	TranslateEachInline(spec, "Subs", newNode, newTree,
		func(inner *Spec[*node, *tree, string]) {
			inner.CopyFrom("Label", "Name").Exclude("Sub", "Subs")
		},
		childrenOf)
	tr := MustCompile(spec)

	in := newTree()
	in.Children.Append(leaf("x"), leaf("y"))
	out, err := tr.Translate(in, "")
	require.NoError(t, err)
	labels := make([]string, 0, out.Subs.Len())
	for _, n := range out.Subs.Items() {
		labels = append(labels, n.Label.OrElse(""))
	}
	assert.Equal(t, []string{"x", "y"}, labels)

	assert.Equal(t, []RuleInfo{
		{Key: "Label", Kind: RuleExclude},
		{Key: "Sub", Kind: RuleExclude},
		{Key: "Subs", Kind: RuleTranslate, Nested: "each.Subs"},
	}, tr.Rules())
}

func TestTranslate_Concurrent(t *testing.T) {
	tr := upper(t)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	labels := make([]string, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := leaf(fmt.Sprintf("n%d", i))
			in.Children.Append(leaf("c"))
			out, err := tr.Translate(in, "")
			errs[i] = err
			if err == nil {
				labels[i] = out.Label.OrElse("")
			}
		}()
	}
	wg.Wait()

	for i := range 16 {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("N%d", i), labels[i])
	}
}
