package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// DigestLen is the length of every digest in hex characters.
const DigestLen = 64

// Algorithm names a digest routine.
type Algorithm string

const (
	// AlgorithmLegacy32 is the 32-bit rolling hash the ledger has always
	// issued. It is NOT collision resistant: only the last 8 hex characters
	// ever carry information.
	AlgorithmLegacy32 Algorithm = "legacy32"

	// AlgorithmSHA256 is SHA-256 over the same concatenation. Digests it
	// produces never match legacy32 digests for the same certificate.
	AlgorithmSHA256 Algorithm = "sha256"
)

// DigestFunc maps certificate fields to a 64-character hex digest.
type DigestFunc func(CertificateInput) string

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case AlgorithmLegacy32, AlgorithmSHA256:
		return a, nil
	case "":
		return AlgorithmLegacy32, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q: must be %q or %q", name, AlgorithmLegacy32, AlgorithmSHA256)
	}
}

// Func returns the digest routine for the algorithm.
// Unknown algorithms fall back to legacy32.
func (a Algorithm) Func() DigestFunc {
	if a == AlgorithmSHA256 {
		return DigestSHA256
	}
	return Digest
}

// concat joins the fields in digest order with no separator.
func (in CertificateInput) concat() string {
	return in.StudentName + in.CourseName + in.Grade + in.IssueDate + in.InstructorName
}

// Digest computes the legacy32 digest of in.
//
// Each UTF-16 code unit of the concatenated fields is folded into a signed
// 32-bit accumulator as acc = acc*31 + unit with wraparound. The absolute
// value is rendered in lowercase hex and left-padded with zeros to 64
// characters, so the result is always 56 zeros followed by at most 8 digits.
func Digest(in CertificateInput) string {
	var acc int32
	for _, unit := range utf16.Encode([]rune(in.concat())) {
		acc = acc*31 + int32(unit)
	}

	// Widen first: |math.MinInt32| does not fit in int32.
	mag := int64(acc)
	if mag < 0 {
		mag = -mag
	}
	return leftPad(strconv.FormatInt(mag, 16))
}

// DigestSHA256 computes the SHA-256 digest of the UTF-8 concatenation.
func DigestSHA256(in CertificateInput) string {
	sum := sha256.Sum256([]byte(in.concat()))
	return hex.EncodeToString(sum[:])
}

func leftPad(h string) string {
	if len(h) >= DigestLen {
		return h
	}
	return strings.Repeat("0", DigestLen-len(h)) + h
}
