// Package claims holds the 837 professional business entities and the
// translation specifications between them and bound X12 layouts.
//
// Inbound specs read a bound ST..SE layout into a Batch: the billing
// provider levels, their subscribers and patients, claims and service
// lines. Outbound specs mirror them and produce a layout the document
// writer can emit. Both directions take a Directory as ambient state for
// payer lookups.
package claims
