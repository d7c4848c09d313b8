package report

import (
	"strings"
	"testing"
)

func TestValidateEvidence_Valid(t *testing.T) {
	cases := []string{
		"",
		"sent abusive messages",
		strings.Repeat("a", MaxEvidenceChars),
		"unicode is fine: héllo wörld 你好",
	}
	for _, text := range cases {
		if err := ValidateEvidence(text); err != nil {
			t.Errorf("ValidateEvidence(%.20q...) unexpected error: %v", text, err)
		}
	}
}

func TestValidateEvidence_TooManyBytes(t *testing.T) {
	text := strings.Repeat("你", MaxEvidenceBytes/3+1) // 3 bytes per rune, under the char cap
	if err := ValidateEvidence(text); err == nil {
		t.Error("expected byte limit error")
	}
}

func TestValidateEvidence_TooManyChars(t *testing.T) {
	text := strings.Repeat("a", MaxEvidenceChars+1)
	if err := ValidateEvidence(text); err == nil {
		t.Error("expected character limit error")
	}
}

func TestValidateEvidence_InvalidUTF8(t *testing.T) {
	if err := ValidateEvidence(string([]byte{0xff, 0xfe, 0xfd})); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
}
