package parser

import (
	"testing"

	"github.com/dgallion1/secgest/internal/filing"
)

func TestDetectFilingType(t *testing.T) {
	tests := []struct {
		content string
		want    filing.FilingType
	}{
		{"FORM S-1/A ... FORM S-1 REGISTRATION STATEMENT", filing.TypeS1A},
		{"Amendment No. 2 to Form S-1", filing.TypeS1A},
		{"form s-1 registration statement", filing.TypeS1},
		{"Filed pursuant to Rule 424(b)(4) FORM 424B4", filing.Type424B4},
		{"This final prospectus relates to", filing.Type424B4},
		{"PRELIMINARY PROSPECTUS", filing.TypeProspectus},
		{"Annual report", filing.TypeUnknown},
		{"", filing.TypeUnknown},
	}
	for _, tt := range tests {
		if got := DetectFilingType(tt.content); got != tt.want {
			t.Errorf("DetectFilingType(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestFilingTypeFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  filing.FilingType
	}{
		{"s-1", filing.TypeS1},
		{"S-1/A", filing.TypeS1A},
		{"s-1-a-2024-01-05", filing.TypeS1A},
		{"final-prospectus", filing.Type424B4},
		{"final-prospectus-2024-02-01", filing.Type424B4},
		{"424B4", filing.Type424B4},
		{"10-k-2023-12-31", filing.TypeUnknown},
		{"", filing.TypeUnknown},
	}
	for _, tt := range tests {
		if got := FilingTypeFromLabel(tt.label); got != tt.want {
			t.Errorf("FilingTypeFromLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
