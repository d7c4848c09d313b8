package report

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxEvidenceBytes = 4096 // 4KB max stored evidence
	MaxEvidenceChars = 2000 // max character count
)

// ValidateEvidence checks that report evidence meets content requirements.
// Empty evidence is allowed: a report can stand on its own.
func ValidateEvidence(text string) error {
	if len(text) > MaxEvidenceBytes {
		return fmt.Errorf("evidence exceeds %d byte limit", MaxEvidenceBytes)
	}
	if utf8.RuneCountInString(text) > MaxEvidenceChars {
		return fmt.Errorf("evidence exceeds %d character limit", MaxEvidenceChars)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("evidence contains invalid UTF-8")
	}
	return nil
}
