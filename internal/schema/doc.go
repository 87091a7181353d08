// Package schema holds the read-only descriptors that drive binding and
// writing of X12 documents.
//
// A Catalog is compiled once at process start, from CUE sources (LoadDir,
// Compile) or from the embedded 5010 catalog (Builtin), and is immutable
// afterwards. Descriptors are shared across goroutines without locking.
//
// Cardinality belongs to the Reference, not to the Segment or Loop it
// points at: the same NM1 descriptor is required in one loop and
// situational in another.
package schema
