package parser

import (
	"strings"

	"github.com/dgallion1/secgest/internal/filing"
)

// DetectFilingType classifies a filing from its content. Amendments are
// checked first because an S-1/A also contains the literal "FORM S-1".
func DetectFilingType(content string) filing.FilingType {
	upper := strings.ToUpper(content)
	switch {
	case strings.Contains(upper, "FORM S-1/A") || strings.Contains(upper, "AMENDMENT NO."):
		return filing.TypeS1A
	case strings.Contains(upper, "FORM S-1"):
		return filing.TypeS1
	case strings.Contains(upper, "FORM 424B4") || strings.Contains(upper, "FINAL PROSPECTUS"):
		return filing.Type424B4
	case strings.Contains(upper, "PROSPECTUS"):
		return filing.TypeProspectus
	}
	return filing.TypeUnknown
}
