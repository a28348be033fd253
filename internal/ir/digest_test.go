package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = CertificateInput{
	StudentName:    "Alice",
	CourseName:     "Math",
	Grade:          "A",
	IssueDate:      "2024-01-01",
	InstructorName: "Bob",
}

func TestDigestKnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input CertificateInput
		want  string
	}{
		{"alice", alice, "1154f3c4"},
		{"empty", CertificateInput{}, "0"},
		{"single char", CertificateInput{Grade: "a"}, "61"},
		{"negative accumulator", CertificateInput{CourseName: "Introduction to Computer Science"}, "29628b82"},
		{"astral rune counts as surrogate pair", CertificateInput{StudentName: "😀"}, "1b0d63"},
		{"latin-1", CertificateInput{StudentName: "é"}, "e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Digest(tt.input)
			require.Len(t, got, DigestLen)
			assert.Equal(t, strings.Repeat("0", DigestLen-len(tt.want))+tt.want, got)
		})
	}
}

func TestDigestDeterminism(t *testing.T) {
	first := Digest(alice)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Digest(alice))
	}
}

func TestDigestChangesWithEachField(t *testing.T) {
	base := Digest(alice)

	variants := map[string]CertificateInput{
		"student":    {StudentName: "Alicia", CourseName: "Math", Grade: "A", IssueDate: "2024-01-01", InstructorName: "Bob"},
		"course":     {StudentName: "Alice", CourseName: "Physics", Grade: "A", IssueDate: "2024-01-01", InstructorName: "Bob"},
		"grade":      {StudentName: "Alice", CourseName: "Math", Grade: "B", IssueDate: "2024-01-01", InstructorName: "Bob"},
		"issue date": {StudentName: "Alice", CourseName: "Math", Grade: "A", IssueDate: "2024-01-02", InstructorName: "Bob"},
		"instructor": {StudentName: "Alice", CourseName: "Math", Grade: "A", IssueDate: "2024-01-01", InstructorName: "Rob"},
	}

	for name, in := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, Digest(in))
		})
	}
}

func TestDigestHasNoFieldSeparator(t *testing.T) {
	// Field boundaries do not contribute to the digest.
	a := CertificateInput{StudentName: "AliceMath", Grade: "A", IssueDate: "2024-01-01", InstructorName: "Bob"}
	assert.Equal(t, Digest(alice), Digest(a))
}

func TestDigestIsLowercaseHex(t *testing.T) {
	got := Digest(CertificateInput{CourseName: "Introduction to Computer Science"})
	assert.Equal(t, strings.ToLower(got), got)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("0", 56)))
}

func TestDigestSHA256(t *testing.T) {
	got := DigestSHA256(alice)
	assert.Equal(t, "ff1a11ee50a62ff21ab1e02d070c43cb3b91a966e64ba5143cdb805b3154d8f4", got)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", DigestSHA256(CertificateInput{}))
	assert.NotEqual(t, Digest(alice), got)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"legacy32", AlgorithmLegacy32, false},
		{"SHA256", AlgorithmSHA256, false},
		{"", AlgorithmLegacy32, false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmFunc(t *testing.T) {
	assert.Equal(t, Digest(alice), AlgorithmLegacy32.Func()(alice))
	assert.Equal(t, DigestSHA256(alice), AlgorithmSHA256.Func()(alice))
}
