package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// a future algorithm change without colliding with stored hashes.
const (
	DomainDocument = "machete/document/v1"
	DomainGraph    = "machete/graph/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash identifies raw interchange bytes.
func DocumentHash(raw []byte) string {
	return hashWithDomain(DomainDocument, raw)
}

// GraphHash identifies an entity graph by its canonical JSON, so two graphs
// with equal fields hash equally regardless of how they were produced.
func GraphHash(e Entity) (string, error) {
	canonical, err := MarshalCanonical(Snapshot(e))
	if err != nil {
		return "", fmt.Errorf("GraphHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// MustGraphHash is like GraphHash but panics on error.
// Use only in tests or when the graph is known to be valid.
func MustGraphHash(e Entity) string {
	h, err := GraphHash(e)
	if err != nil {
		panic(err)
	}
	return h
}
