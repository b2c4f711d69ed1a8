package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the encoding
// to change without colliding with old fingerprints.
const (
	DomainAST  = "meta-where/ast/v" + IRVersion
	DomainRows = "meta-where/rows/v" + IRVersion
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex SHA-256 of the canonical JSON of v under the
// given domain. Two structurally identical values always share a
// fingerprint.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(domain string, v any) string {
	fp, err := Fingerprint(domain, v)
	if err != nil {
		panic(err)
	}
	return fp
}

// FingerprintRows hashes a result set under DomainRows. Unlike
// Fingerprint it accepts IRNull, since SQL results carry NULLs. Row order
// is significant.
func FingerprintRows(rows []IRObject) (string, error) {
	arr := make(IRArray, len(rows))
	for i, r := range rows {
		arr[i] = r
	}
	data, err := MarshalIRValue(arr)
	if err != nil {
		return "", fmt.Errorf("fingerprint rows: %w", err)
	}
	return hashWithDomain(DomainRows, data), nil
}
