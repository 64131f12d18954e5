// Package fingerprint computes stable identities for query requests.
//
// A fingerprint is SHA-256 over a domain prefix, a zero byte and the
// canonical JSON of the value. Two requests that differ only in map order,
// number spelling or Unicode normalization share a fingerprint; the domain
// keeps fingerprints of different kinds of values apart.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domains. The version suffix allows the canonical form to change without
// colliding with stored fingerprints.
const (
	DomainQuery    = "pivotql/query/v1"
	DomainScenario = "pivotql/scenario/v1"
)

// Of returns the hex fingerprint of v within domain.
func Of(domain string, v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hash(domain, canonical), nil
}

// MustOf is like Of but panics on error. Use only in tests or when v is
// known to encode.
func MustOf(domain string, v any) string {
	fp, err := Of(domain, v)
	if err != nil {
		panic(err)
	}
	return fp
}

func hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
