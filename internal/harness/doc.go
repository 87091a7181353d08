// Package harness runs conformance scenarios against the 837P pipeline.
//
// A scenario names an X12 input file and what should happen to it:
//
//	name: professional_roundtrip
//	description: "Two-subscriber claim survives decode and encode"
//	input: ../fixtures/837p.x12
//	directory: ../fixtures/payers.yaml
//	expect:
//	  batches: 1
//	  conformant: true
//	  roundtrip: true
//	  translate_roundtrip: true
//	  archive: true
//	assertions:
//	  - type: equals
//	    path: batches[0]/BillingProviders[0]/Provider/Name
//	    value: ACME CLINIC
//	  - type: count
//	    path: batches[0]/BillingProviders[0]/Subscribers
//	    count: 2
//	  - type: missing
//	    path: batches[0]/BillingProviders[0]/PayTo
//
// Or that it must be rejected, by error code:
//
//	expect:
//	  error: UNEXPECTED_SEGMENT
//
// # Paths
//
// Assertion paths walk the entity snapshot of the decoded interchange:
// field names separated by "/", list items selected with "[i]". The root
// holds one key, "batches".
//
// # Determinism
//
// Archive checks run against an in-memory sqlite store with a fixed clock
// and sequential run IDs, so reruns produce identical rows. RunWithGolden
// compares the re-encoded document against testdata/golden/<name>.golden;
// regenerate with:
//
//	go test ./internal/harness -update
package harness
