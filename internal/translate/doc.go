// Package translate maps one entity type onto another with declarative
// field rules.
//
// A Spec names, for every field of the result type, exactly one rule:
//
//	Copy          take the same-named input field
//	CopyFrom      take a differently named input field
//	Exclude       force the field to Missing
//	Set*          compute the field from the input and ambient state
//	Translate*    produce a nested entity with another translator
//
// Rules are addressed by ir.FieldKey, never by struct member, and a Spec
// that leaves a field unmapped, claims it twice, or copies between
// mismatched types does not compile. Every problem is reported at once.
//
// Compile freezes a Spec into a Translator. A Translator is immutable and
// may be shared by any number of goroutines; each Translate call works on
// its own Context and result. Rules run in declaration order, so a Set
// provider can read result fields filled by earlier rules.
package translate
