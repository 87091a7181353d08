package translate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/GeekSage/Machete/internal/ir"
)

// Translator is a compiled specification. It is immutable after Compile
// and safe for concurrent use.
type Translator[R, I ir.Entity, S any] struct {
	name      string
	newResult func() R
	infos     []RuleInfo
	rules     []compiledRule[R, I, S]
}

type compiledRule[R, I ir.Entity, S any] struct {
	key   ir.FieldKey
	index int
	apply applyFunc[R, I, S]
}

// Scope is the translation a Context belongs to. Nested translations link
// to their parent so providers can read enclosing inputs and results.
type Scope struct {
	Spec   string
	Key    ir.FieldKey
	Path   string
	Input  ir.Entity
	Result ir.Entity
	Parent *Scope
}

// Context is handed to every provider of one translation.
type Context[R, I ir.Entity, S any] struct {
	Input  I
	Result R
	State  S

	scope *Scope
}

// Scope returns the translation this context belongs to.
func (c *Context[R, I, S]) Scope() *Scope {
	return c.scope
}

// Parent returns the enclosing translation, or nil at the top level.
func (c *Context[R, I, S]) Parent() *Scope {
	return c.scope.Parent
}

// Path returns the key path from the outermost translation; empty at the
// top level.
func (c *Context[R, I, S]) Path() string {
	return c.scope.Path
}

// Compile validates s and freezes it. A specification with any
// error-severity finding yields a *SpecificationError listing all of them.
func Compile[R, I ir.Entity, S any](s *Spec[R, I, S]) (*Translator[R, I, S], error) {
	results := s.Validate()
	if ir.HasErrors(results) {
		return nil, &SpecificationError{Name: s.name, Results: results}
	}

	prototype := s.newResult()
	t := &Translator[R, I, S]{
		name:      s.name,
		newResult: s.newResult,
		infos:     s.Rules(),
		rules:     make([]compiledRule[R, I, S], 0, len(s.rules)),
	}
	for _, r := range s.rules {
		apply, err := r.build()
		if err != nil {
			return nil, fmt.Errorf("compile %s: field %s: %w", s.name, r.info.Key, err)
		}
		t.rules = append(t.rules, compiledRule[R, I, S]{
			key:   r.info.Key,
			index: ir.IndexOf(prototype, r.info.Key),
			apply: apply,
		})
	}
	slog.Debug("compiled specification", "spec", s.name, "rules", len(t.rules))
	return t, nil
}

// MustCompile is Compile for specifications built at package init.
func MustCompile[R, I ir.Entity, S any](s *Spec[R, I, S]) *Translator[R, I, S] {
	t, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the specification name.
func (t *Translator[R, I, S]) Name() string {
	return t.name
}

// Rules describes the compiled rules in execution order.
func (t *Translator[R, I, S]) Rules() []RuleInfo {
	out := make([]RuleInfo, len(t.infos))
	copy(out, t.infos)
	return out
}

// Translate produces a new result from input. The input is never
// modified. The first failing rule aborts the translation with a
// *TranslationFailure; no partial result is returned.
func (t *Translator[R, I, S]) Translate(input I, state S) (R, error) {
	return t.run(input, state, nil, "", "")
}

func (t *Translator[R, I, S]) run(input I, state S, parent *Scope, key ir.FieldKey, path string) (R, error) {
	var zero R
	result := t.newResult()
	ctx := &Context[R, I, S]{
		Input:  input,
		Result: result,
		State:  state,
		scope: &Scope{
			Spec:   t.name,
			Key:    key,
			Path:   path,
			Input:  input,
			Result: result,
			Parent: parent,
		},
	}
	slots := result.Slots()
	for _, r := range t.rules {
		if err := t.apply(ctx, r, slots[r.index].Slot); err != nil {
			slog.Debug("translation failed", "spec", t.name, "field", r.key, "error", err)
			return zero, err
		}
	}
	return result, nil
}

func (t *Translator[R, I, S]) apply(ctx *Context[R, I, S], r compiledRule[R, I, S], dst ir.Slot) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = t.failure(ctx, r.key, &PanicError{Value: p})
		}
	}()
	if err := r.apply(ctx, dst); err != nil {
		var tf *TranslationFailure
		if errors.As(err, &tf) {
			return err
		}
		return t.failure(ctx, r.key, err)
	}
	return nil
}

func (t *Translator[R, I, S]) failure(ctx *Context[R, I, S], key ir.FieldKey, cause error) *TranslationFailure {
	return &TranslationFailure{
		Spec:  t.name,
		Key:   key,
		Path:  joinPath(ctx.scope.Path, string(key)),
		Cause: cause,
	}
}
