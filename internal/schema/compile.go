package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a catalog compilation error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile turns a CUE catalog value into descriptors.
//
// The value is the catalog root, carrying two structs:
//
//	segments: NM1: {name: "...", elements: [{ref: "NM101", type: "ID", usage: "R", min: 2, max: 3}, ...]}
//	transactions: "837P": {id: "837", version: "005010X222A1", body: [...], loops: {"1000A": {...}}}
//
// Segment references resolve against the catalog's segments; loop
// references resolve against the loops of the enclosing transaction.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{
		Segments:     make(map[string]*Segment),
		Transactions: make(map[string]*Transaction),
	}

	segsVal := v.LookupPath(cue.ParsePath("segments"))
	if segsVal.Exists() {
		iter, err := segsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			seg, err := compileSegment(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			cat.Segments[seg.Tag] = seg
		}
	}

	txVal := v.LookupPath(cue.ParsePath("transactions"))
	if !txVal.Exists() {
		return nil, &CompileError{
			Field:   "transactions",
			Message: "at least one transaction is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := txVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		tx, err := compileTransaction(cat, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		cat.Transactions[tx.Name] = tx
	}
	if len(cat.Transactions) == 0 {
		return nil, &CompileError{
			Field:   "transactions",
			Message: "at least one transaction is required",
			Pos:     txVal.Pos(),
		}
	}

	return cat, nil
}

func compileSegment(tag string, v cue.Value) (*Segment, error) {
	seg := &Segment{Tag: tag}
	name, err := optString(v, "name")
	if err != nil {
		return nil, err
	}
	seg.Name = name

	elemsVal := v.LookupPath(cue.ParsePath("elements"))
	if !elemsVal.Exists() {
		return nil, &CompileError{
			Field:   "segments." + tag + ".elements",
			Message: "elements are required",
			Pos:     v.Pos(),
		}
	}
	seg.Elements, err = compileElements("segments."+tag, elemsVal)
	if err != nil {
		return nil, err
	}
	return seg, nil
}

func compileElements(path string, v cue.Value) ([]Element, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Element
	for iter.Next() {
		ev := iter.Value()
		ref, err := reqString(ev, "ref", path)
		if err != nil {
			return nil, err
		}
		elPath := path + "." + ref

		e := Element{Ref: ref}
		if e.Name, err = optString(ev, "name"); err != nil {
			return nil, err
		}
		typ, err := reqString(ev, "type", elPath)
		if err != nil {
			return nil, err
		}
		e.Type = ElementType(typ)

		usage, err := optString(ev, "usage")
		if err != nil {
			return nil, err
		}
		if usage == "" {
			usage = string(UsageSituational)
		}
		e.Usage = Usage(usage)

		if e.MinLength, err = optInt(ev, "min", 0); err != nil {
			return nil, err
		}
		if e.MaxLength, err = optInt(ev, "max", 0); err != nil {
			return nil, err
		}
		if e.Repeat, err = optCount(ev, "repeat", 1); err != nil {
			return nil, err
		}

		compVal := ev.LookupPath(cue.ParsePath("components"))
		if compVal.Exists() {
			if e.Components, err = compileElements(elPath, compVal); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// loopSource is a loop definition waiting for its references to resolve.
type loopSource struct {
	value cue.Value
	loop  *Loop
	done  bool
}

func compileTransaction(cat *Catalog, label string, v cue.Value) (*Transaction, error) {
	path := "transactions." + label
	tx := &Transaction{Name: label}

	var err error
	if tx.ID, err = reqString(v, "id", path); err != nil {
		return nil, err
	}
	if tx.Version, err = optString(v, "version"); err != nil {
		return nil, err
	}
	if tx.Title, err = optString(v, "title"); err != nil {
		return nil, err
	}

	sources := make(map[string]*loopSource)
	loopsVal := v.LookupPath(cue.ParsePath("loops"))
	if loopsVal.Exists() {
		iter, err := loopsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			sources[iter.Label()] = &loopSource{value: iter.Value(), loop: &Loop{ID: iter.Label()}}
		}
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return nil, &CompileError{Field: path + ".body", Message: "body is required", Pos: v.Pos()}
	}
	tx.Body = &Loop{ID: label, Name: tx.Title}
	r := &resolver{cat: cat, sources: sources, path: path, active: make(map[string]bool)}
	if tx.Body.Children, err = r.refs(path+".body", bodyVal); err != nil {
		return nil, err
	}
	return tx, nil
}

type resolver struct {
	cat     *Catalog
	sources map[string]*loopSource
	path    string
	active  map[string]bool
}

func (r *resolver) refs(path string, v cue.Value) ([]*Reference, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*Reference
	for i := 0; iter.Next(); i++ {
		rv := iter.Value()
		refPath := fmt.Sprintf("%s[%d]", path, i)

		segTag, err := optString(rv, "segment")
		if err != nil {
			return nil, err
		}
		loopID, err := optString(rv, "loop")
		if err != nil {
			return nil, err
		}
		if (segTag == "") == (loopID == "") {
			return nil, &CompileError{
				Field:   refPath,
				Message: "reference must name exactly one of segment or loop",
				Pos:     rv.Pos(),
			}
		}

		ref := &Reference{}
		if ref.Name, err = optString(rv, "name"); err != nil {
			return nil, err
		}
		if ref.Min, err = optInt(rv, "min", 0); err != nil {
			return nil, err
		}
		if ref.Max, err = optCount(rv, "max", 1); err != nil {
			return nil, err
		}
		if ref.Qualifiers, err = compileQualifiers(refPath, rv); err != nil {
			return nil, err
		}

		if segTag != "" {
			seg, ok := r.cat.Segments[segTag]
			if !ok {
				return nil, &CompileError{
					Field:   refPath + ".segment",
					Message: fmt.Sprintf("unknown segment %q", segTag),
					Pos:     rv.Pos(),
				}
			}
			ref.Segment = seg
			if ref.Name == "" {
				ref.Name = segTag
			}
		} else {
			loop, err := r.loop(loopID, refPath, rv.Pos())
			if err != nil {
				return nil, err
			}
			ref.Loop = loop
			if ref.Name == "" {
				ref.Name = loopID
			}
		}
		out = append(out, ref)
	}
	return out, nil
}

func (r *resolver) loop(id, refPath string, pos token.Pos) (*Loop, error) {
	src, ok := r.sources[id]
	if !ok {
		return nil, &CompileError{
			Field:   refPath + ".loop",
			Message: fmt.Sprintf("unknown loop %q", id),
			Pos:     pos,
		}
	}
	if src.done {
		return src.loop, nil
	}
	if r.active[id] {
		return nil, &CompileError{
			Field:   refPath + ".loop",
			Message: fmt.Sprintf("loop %q contains itself", id),
			Pos:     pos,
		}
	}
	r.active[id] = true
	defer delete(r.active, id)

	loopPath := r.path + ".loops." + id
	var err error
	if src.loop.Name, err = optString(src.value, "name"); err != nil {
		return nil, err
	}
	if src.loop.Level, err = optString(src.value, "level"); err != nil {
		return nil, err
	}
	childVal := src.value.LookupPath(cue.ParsePath("children"))
	if !childVal.Exists() {
		return nil, &CompileError{Field: loopPath + ".children", Message: "children are required", Pos: src.value.Pos()}
	}
	if src.loop.Children, err = r.refs(loopPath+".children", childVal); err != nil {
		return nil, err
	}
	src.done = true
	return src.loop, nil
}

func compileQualifiers(path string, v cue.Value) ([]Qualifier, error) {
	qv := v.LookupPath(cue.ParsePath("qualifiers"))
	if !qv.Exists() {
		return nil, nil
	}
	iter, err := qv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Qualifier
	for iter.Next() {
		item := iter.Value()
		q := Qualifier{}
		if q.Element, err = optInt(item, "element", 0); err != nil {
			return nil, err
		}
		if q.Component, err = optInt(item, "component", 0); err != nil {
			return nil, err
		}
		valsVal := item.LookupPath(cue.ParsePath("values"))
		vals, err := valsVal.List()
		if err != nil {
			return nil, &CompileError{Field: path + ".qualifiers", Message: "values must be a list of strings", Pos: item.Pos()}
		}
		for vals.Next() {
			s, err := vals.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			q.Values = append(q.Values, s)
		}
		out = append(out, q)
	}
	return out, nil
}

// present returns the concrete value at path, or false when it is absent or
// only constrained.
func present(v cue.Value, path string) (cue.Value, bool) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return fv, false
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	return fv, fv.IsConcrete()
}

func optString(v cue.Value, path string) (string, error) {
	fv, ok := present(v, path)
	if !ok {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func reqString(v cue.Value, path, parent string) (string, error) {
	s, err := optString(v, path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &CompileError{
			Field:   parent + "." + path,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func optInt(v cue.Value, path string, def int) (int, error) {
	fv, ok := present(v, path)
	if !ok {
		return def, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// optCount reads a maximum that is either an integer or ">1".
func optCount(v cue.Value, path string, def int) (int, error) {
	fv, ok := present(v, path)
	if !ok {
		return def, nil
	}
	if s, err := fv.String(); err == nil {
		if strings.TrimSpace(s) == ">1" {
			return Unbounded, nil
		}
		return 0, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("count must be an integer or \">1\", got %q", s),
			Pos:     fv.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
