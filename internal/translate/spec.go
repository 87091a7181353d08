package translate

import (
	"fmt"
	"strings"

	"github.com/GeekSage/Machete/internal/ir"
)

// RuleKind is the kind of a field rule.
type RuleKind int

const (
	RuleCopy RuleKind = iota
	RuleExclude
	RuleSet
	RuleTranslate
)

// String returns the rule kind name.
func (k RuleKind) String() string {
	switch k {
	case RuleCopy:
		return "Copy"
	case RuleExclude:
		return "Exclude"
	case RuleSet:
		return "Set"
	case RuleTranslate:
		return "Translate"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k RuleKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RuleInfo describes a declared rule.
type RuleInfo struct {
	Key    ir.FieldKey `json:"key"`
	Kind   RuleKind    `json:"kind"`
	Source ir.FieldKey `json:"source,omitempty"`
	Nested string      `json:"nested,omitempty"`
}

// applyFunc fills dst, the result slot of the rule.
type applyFunc[R, I ir.Entity, S any] func(ctx *Context[R, I, S], dst ir.Slot) error

type rule[R, I ir.Entity, S any] struct {
	info RuleInfo

	// validate checks the rule against fresh result and input entities.
	validate func(result R, input I) []ir.ValidateResult

	// build returns the function run for the rule; nested inline specs
	// are compiled here.
	build func() (applyFunc[R, I, S], error)
}

func static[R, I ir.Entity, S any](fn applyFunc[R, I, S]) func() (applyFunc[R, I, S], error) {
	return func() (applyFunc[R, I, S], error) { return fn, nil }
}

// Spec is the rule set producing result entities R from input entities I
// with ambient state S. Build it with New, the rule methods and the
// generic Set and Translate functions, then Compile it.
//
// A Spec is not safe for concurrent use while being built.
type Spec[R, I ir.Entity, S any] struct {
	name      string
	newResult func() R
	newInput  func() I
	rules     []*rule[R, I, S]
}

// New starts a specification. newResult must return a fresh, empty result
// entity on every call; newInput returns an input entity used only to
// resolve field references during validation.
func New[R, I ir.Entity, S any](name string, newResult func() R, newInput func() I) *Spec[R, I, S] {
	return &Spec[R, I, S]{name: name, newResult: newResult, newInput: newInput}
}

// Name returns the specification name.
func (s *Spec[R, I, S]) Name() string {
	return s.name
}

// Rules describes the declared rules in declaration order.
func (s *Spec[R, I, S]) Rules() []RuleInfo {
	out := make([]RuleInfo, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.info
	}
	return out
}

func (s *Spec[R, I, S]) add(r *rule[R, I, S]) *Spec[R, I, S] {
	s.rules = append(s.rules, r)
	return s
}

// Copy sources each key from the same-named input field. The two fields
// must hold identical value types.
func (s *Spec[R, I, S]) Copy(keys ...ir.FieldKey) *Spec[R, I, S] {
	for _, key := range keys {
		s.CopyFrom(key, key)
	}
	return s
}

// CopyFrom sources key from input field source.
func (s *Spec[R, I, S]) CopyFrom(key, source ir.FieldKey) *Spec[R, I, S] {
	return s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleCopy, Source: source},
		validate: func(result R, input I) []ir.ValidateResult {
			dst, _ := ir.Lookup(result, key)
			src, ok := ir.Lookup(input, source)
			if !ok {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidInputReference,
					"copy source %q is not a field of the input", source)}
			}
			if !ir.SameType(dst, src) {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidInputReference,
					"copy source %q holds %s, result field holds %s", source, src.TypeName(), dst.TypeName())}
			}
			return nil
		},
		build: static(func(ctx *Context[R, I, S], dst ir.Slot) error {
			src, ok := ir.Lookup(ctx.Input, source)
			if !ok {
				return fmt.Errorf("input has no field %q", source)
			}
			return ir.Assign(dst, src)
		}),
	})
}

// Exclude forces each key to Missing regardless of the input.
func (s *Spec[R, I, S]) Exclude(keys ...ir.FieldKey) *Spec[R, I, S] {
	for _, key := range keys {
		s.add(&rule[R, I, S]{
			info:     RuleInfo{Key: key, Kind: RuleExclude},
			validate: func(R, I) []ir.ValidateResult { return nil },
			build: static(func(_ *Context[R, I, S], dst ir.Slot) error {
				dst.SetMissing()
				return nil
			}),
		})
	}
	return s
}

// Set computes key with a value provider; the result is always Present.
func Set[T any, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, fn func(*Context[R, I, S]) (T, error)) {
	if fn == nil {
		SetValue[T](s, key, nil)
		return
	}
	SetValue(s, key, func(ctx *Context[R, I, S]) (ir.Value[T], error) {
		v, err := fn(ctx)
		if err != nil {
			return ir.Missing[T](), err
		}
		return ir.Present(v), nil
	})
}

// SetOptional computes key with a nullable provider: ok false yields
// Missing.
func SetOptional[T any, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, fn func(*Context[R, I, S]) (T, bool, error)) {
	if fn == nil {
		SetValue[T](s, key, nil)
		return
	}
	SetValue(s, key, func(ctx *Context[R, I, S]) (ir.Value[T], error) {
		v, ok, err := fn(ctx)
		if err != nil || !ok {
			return ir.Missing[T](), err
		}
		return ir.Present(v), nil
	})
}

// SetValue computes key with a provider returning the Value itself, so it
// can decide between Missing and Present.
func SetValue[T any, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, fn func(*Context[R, I, S]) (ir.Value[T], error)) {
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleSet},
		validate: func(result R, _ I) []ir.ValidateResult {
			if fn == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "set rule has no provider")}
			}
			return checkValueSlot[T](result, key)
		},
		build: static(func(ctx *Context[R, I, S], dst ir.Slot) error {
			v, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst.(*ir.Value[T]) = v
			return nil
		}),
	})
}

// SetList computes a repeating key.
func SetList[T any, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, fn func(*Context[R, I, S]) (ir.ValueList[T], error)) {
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleSet},
		validate: func(result R, _ I) []ir.ValidateResult {
			if fn == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "set rule has no provider")}
			}
			return checkListSlot[T](result, key)
		},
		build: static(func(ctx *Context[R, I, S], dst ir.Slot) error {
			v, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst.(*ir.ValueList[T]) = v
			return nil
		}),
	})
}

// Translate fills key with sub applied to the input narrow selects. A
// narrow returning ok false leaves the field Missing.
func Translate[N, M ir.Entity, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, sub *Translator[N, M, S], narrow func(*Context[R, I, S]) (M, bool, error)) {
	nested := ""
	if sub != nil {
		nested = sub.name
	}
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleTranslate, Nested: nested},
		validate: func(result R, _ I) []ir.ValidateResult {
			if sub == nil || narrow == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "translate rule needs a translator and a narrowing function")}
			}
			return checkValueSlot[N](result, key)
		},
		build: static(translateOne(key, func() *Translator[N, M, S] { return sub }, narrow)),
	})
}

// TranslateEach fills a repeating key with sub applied to every input
// narrow selects, in order.
func TranslateEach[N, M ir.Entity, R, I ir.Entity, S any](s *Spec[R, I, S], key ir.FieldKey, sub *Translator[N, M, S], narrow func(*Context[R, I, S]) ([]M, bool, error)) {
	nested := ""
	if sub != nil {
		nested = sub.name
	}
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleTranslate, Nested: nested},
		validate: func(result R, _ I) []ir.ValidateResult {
			if sub == nil || narrow == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "translate rule needs a translator and a narrowing function")}
			}
			return checkListSlot[N](result, key)
		},
		build: static(translateEach(key, func() *Translator[N, M, S] { return sub }, narrow)),
	})
}

// TranslateInline is Translate with a nested specification configured in
// place. The nested rules are validated with the parent, their keys
// prefixed by key, and compiled with it.
func TranslateInline[N, M ir.Entity, R, I ir.Entity, S any](
	s *Spec[R, I, S],
	key ir.FieldKey,
	newResult func() N,
	newInput func() M,
	configure func(*Spec[N, M, S]),
	narrow func(*Context[R, I, S]) (M, bool, error),
) {
	nested := New[N, M, S](s.name+"."+string(key), newResult, newInput)
	if configure != nil {
		configure(nested)
	}
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleTranslate, Nested: nested.name},
		validate: func(result R, _ I) []ir.ValidateResult {
			if narrow == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "translate rule needs a narrowing function")}
			}
			results := checkValueSlot[N](result, key)
			return append(results, ir.Prefix(key, nested.Validate())...)
		},
		build: func() (applyFunc[R, I, S], error) {
			sub, err := Compile(nested)
			if err != nil {
				return nil, err
			}
			return translateOne(key, func() *Translator[N, M, S] { return sub }, narrow), nil
		},
	})
}

// TranslateEachInline is TranslateEach with a nested specification
// configured in place.
func TranslateEachInline[N, M ir.Entity, R, I ir.Entity, S any](
	s *Spec[R, I, S],
	key ir.FieldKey,
	newResult func() N,
	newInput func() M,
	configure func(*Spec[N, M, S]),
	narrow func(*Context[R, I, S]) ([]M, bool, error),
) {
	nested := New[N, M, S](s.name+"."+string(key), newResult, newInput)
	if configure != nil {
		configure(nested)
	}
	s.add(&rule[R, I, S]{
		info: RuleInfo{Key: key, Kind: RuleTranslate, Nested: nested.name},
		validate: func(result R, _ I) []ir.ValidateResult {
			if narrow == nil {
				return []ir.ValidateResult{ir.Errorf(key, ErrInvalidRule, "translate rule needs a narrowing function")}
			}
			results := checkListSlot[N](result, key)
			return append(results, ir.Prefix(key, nested.Validate())...)
		},
		build: func() (applyFunc[R, I, S], error) {
			sub, err := Compile(nested)
			if err != nil {
				return nil, err
			}
			return translateEach(key, func() *Translator[N, M, S] { return sub }, narrow), nil
		},
	})
}

func translateOne[N, M ir.Entity, R, I ir.Entity, S any](key ir.FieldKey, sub func() *Translator[N, M, S], narrow func(*Context[R, I, S]) (M, bool, error)) applyFunc[R, I, S] {
	return func(ctx *Context[R, I, S], dst ir.Slot) error {
		in, ok, err := narrow(ctx)
		if err != nil {
			return err
		}
		slot := dst.(*ir.Value[N])
		if !ok {
			slot.SetMissing()
			return nil
		}
		out, err := sub().run(in, ctx.State, ctx.scope, key, joinPath(ctx.scope.Path, string(key)))
		if err != nil {
			return err
		}
		slot.Set(out)
		return nil
	}
}

func translateEach[N, M ir.Entity, R, I ir.Entity, S any](key ir.FieldKey, sub func() *Translator[N, M, S], narrow func(*Context[R, I, S]) ([]M, bool, error)) applyFunc[R, I, S] {
	return func(ctx *Context[R, I, S], dst ir.Slot) error {
		ins, ok, err := narrow(ctx)
		if err != nil {
			return err
		}
		slot := dst.(*ir.ValueList[N])
		if !ok {
			slot.SetMissing()
			return nil
		}
		outs := make([]N, len(ins))
		for i, in := range ins {
			path := fmt.Sprintf("%s[%d]", joinPath(ctx.scope.Path, string(key)), i)
			out, err := sub().run(in, ctx.State, ctx.scope, key, path)
			if err != nil {
				return err
			}
			outs[i] = out
		}
		slot.SetItems(outs)
		return nil
	}
}

func checkValueSlot[T any](result ir.Entity, key ir.FieldKey) []ir.ValidateResult {
	slot, _ := ir.Lookup(result, key)
	if _, ok := slot.(*ir.Value[T]); !ok {
		return []ir.ValidateResult{ir.Errorf(key, ErrInvalidTargetReference,
			"result field holds %s, rule produces %s", slot.TypeName(), (&ir.Value[T]{}).TypeName())}
	}
	return nil
}

func checkListSlot[T any](result ir.Entity, key ir.FieldKey) []ir.ValidateResult {
	slot, _ := ir.Lookup(result, key)
	if _, ok := slot.(*ir.ValueList[T]); !ok {
		return []ir.ValidateResult{ir.Errorf(key, ErrInvalidTargetReference,
			"result field holds %s, rule produces %s", slot.TypeName(), (&ir.ValueList[T]{}).TypeName())}
	}
	return nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.Join([]string{prefix, key}, "/")
}
