// Package document binds raw X12 segments to schema descriptors and writes
// bound graphs back out.
//
// The bound graph is made of three entity types, all data-driven by their
// descriptors rather than generated per loop:
//   - Segment: one slot per element, typed by the element's X12 type
//   - Composite: one slot per component of a composite element
//   - Layout: one slot per child reference of a loop, holding segments or
//     nested layouts
//
// Binding is greedy and forward-only. Each loop is a frame on a stack; a
// segment that no reference of the innermost frame can take is offered to
// the enclosing frames, which is how implicit loop ends are found.
// Hierarchical (HL) levels are bound flat in document order and then
// linked into a tree by parent ID.
//
// A bound graph is owned by the caller. Nothing in this package keeps
// state between calls, so any number of parses may run in parallel over a
// shared schema.
package document
