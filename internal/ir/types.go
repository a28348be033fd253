package ir

import "time"

// CertificateInput holds the five certificate fields that feed the digest.
// Fields are taken verbatim: no trimming, normalization or validation.
type CertificateInput struct {
	StudentName    string `json:"studentName" yaml:"studentName"`
	CourseName     string `json:"courseName" yaml:"courseName"`
	Grade          string `json:"grade" yaml:"grade"`
	IssueDate      string `json:"issueDate" yaml:"issueDate"`
	InstructorName string `json:"instructorName" yaml:"instructorName"`
}

// LedgerRecord is one ledger entry keyed by CertificateID.
type LedgerRecord struct {
	CertificateID  string    `json:"certificateId"`
	Digest         string    `json:"digest"`         // 64 lowercase hex characters
	SequenceNumber int64     `json:"sequenceNumber"` // >= 1, process-wide
	CreatedAt      time.Time `json:"createdAt"`
	Verified       bool      `json:"verified"`
}

// Outcome classifies a verification request.
type Outcome string

const (
	OutcomeValid    Outcome = "valid"
	OutcomeTampered Outcome = "tampered"
	OutcomeNotFound Outcome = "not_found"
)

// Messages shown to users for each outcome.
const (
	MessageValid    = "Certificate verified successfully"
	MessageTampered = "Certificate hash does not match - potential tampering detected"
	MessageNotFound = "Certificate not found on blockchain"
)

// VerificationResult is the outcome of comparing a supplied digest against
// the stored record. SequenceNumber and CreatedAt are nil for NotFound.
type VerificationResult struct {
	Outcome        Outcome    `json:"outcome"`
	SequenceNumber *int64     `json:"sequenceNumber"`
	CreatedAt      *time.Time `json:"createdAt"`
	Message        string     `json:"message"`
}

// IsValid reports whether the digests matched.
func (r VerificationResult) IsValid() bool {
	return r.Outcome == OutcomeValid
}

// NotFound builds the result for an unknown certificate id.
func NotFound() VerificationResult {
	return VerificationResult{Outcome: OutcomeNotFound, Message: MessageNotFound}
}

// Tampered builds the result for a digest mismatch on rec.
func Tampered(rec LedgerRecord) VerificationResult {
	seq, at := rec.SequenceNumber, rec.CreatedAt
	return VerificationResult{
		Outcome:        OutcomeTampered,
		SequenceNumber: &seq,
		CreatedAt:      &at,
		Message:        MessageTampered,
	}
}

// Valid builds the result for a matching digest on rec.
func Valid(rec LedgerRecord) VerificationResult {
	seq, at := rec.SequenceNumber, rec.CreatedAt
	return VerificationResult{
		Outcome:        OutcomeValid,
		SequenceNumber: &seq,
		CreatedAt:      &at,
		Message:        MessageValid,
	}
}

// Stats summarizes the ledger. LastRecordTime is nil when the ledger is empty.
type Stats struct {
	TotalCertificates int        `json:"totalCertificates"`
	TotalBlocks       int64      `json:"totalBlocks"`
	LastRecordTime    *time.Time `json:"lastRecordTime"`
}
