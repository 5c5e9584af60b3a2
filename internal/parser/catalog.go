package parser

import (
	"strings"
	"unicode"
)

// CatalogEntry is one known regulatory section.
type CatalogEntry struct {
	Name  string
	Level int
}

// sectionCatalog lists the sections recognized in registration filings.
var sectionCatalog = []CatalogEntry{
	{"PROSPECTUS SUMMARY", 1},
	{"THE OFFERING", 1},
	{"RISK FACTORS", 1},
	{"SPECIAL NOTE REGARDING FORWARDLOOKING STATEMENTS", 1},
	{"USE OF PROCEEDS", 1},
	{"DIVIDEND POLICY", 1},
	{"CAPITALIZATION", 1},
	{"DILUTION", 1},
	{"SELECTED CONSOLIDATED FINANCIAL DATA", 1},
	{"SELECTED FINANCIAL DATA", 1},
	{"MANAGEMENTS DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS", 1},
	{"BUSINESS", 1},
	{"MANAGEMENT", 1},
	{"EXECUTIVE COMPENSATION", 1},
	{"CERTAIN RELATIONSHIPS AND RELATED PARTY TRANSACTIONS", 1},
	{"PRINCIPAL STOCKHOLDERS", 1},
	{"PRINCIPAL AND SELLING STOCKHOLDERS", 1},
	{"DESCRIPTION OF CAPITAL STOCK", 1},
	{"SHARES ELIGIBLE FOR FUTURE SALE", 1},
	{"UNDERWRITING", 1},
	{"LEGAL MATTERS", 1},
	{"EXPERTS", 1},
	{"WHERE YOU CAN FIND MORE INFORMATION", 1},
	{"INDEX TO FINANCIAL STATEMENTS", 1},
	{"SUMMARY CONSOLIDATED FINANCIAL DATA", 2},
	{"SUMMARY FINANCIAL DATA", 2},
	{"OVERVIEW", 2},
	{"CORPORATE INFORMATION", 2},
	{"LIQUIDITY AND CAPITAL RESOURCES", 2},
	{"RESULTS OF OPERATIONS", 2},
	{"CRITICAL ACCOUNTING POLICIES AND ESTIMATES", 2},
}

// partialMatches maps a keyword to the catalog family it implies. Order
// matters: the first keyword contained in a candidate decides its family.
var partialMatches = []struct {
	keyword string
	family  string
}{
	{"RISK", "RISK FACTORS"},
	{"PROCEEDS", "USE OF PROCEEDS"},
	{"COMPENSATION", "EXECUTIVE COMPENSATION"},
	{"DISCUSSION AND ANALYSIS", "MANAGEMENTS DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS"},
	{"DILUTION", "DILUTION"},
	{"CAPITALIZATION", "CAPITALIZATION"},
	{"DIVIDEND", "DIVIDEND POLICY"},
	{"UNDERWRIT", "UNDERWRITING"},
	{"RELATED PARTY", "CERTAIN RELATIONSHIPS AND RELATED PARTY TRANSACTIONS"},
	{"STOCKHOLDERS", "PRINCIPAL STOCKHOLDERS"},
	{"SHAREHOLDERS", "PRINCIPAL STOCKHOLDERS"},
	{"CAPITAL STOCK", "DESCRIPTION OF CAPITAL STOCK"},
	{"FINANCIAL DATA", "SELECTED FINANCIAL DATA"},
	{"PROSPECTUS SUMMARY", "PROSPECTUS SUMMARY"},
}

var catalogIndex = func() map[string]CatalogEntry {
	m := make(map[string]CatalogEntry, len(sectionCatalog))
	for _, e := range sectionCatalog {
		m[e.Name] = e
	}
	return m
}()

// Canonicalize upper-cases a candidate heading, drops everything that is
// not a letter, digit or whitespace, and collapses whitespace.
func Canonicalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// LookupSection resolves a candidate heading to its catalog entry, either
// by exact canonical name or through a partial keyword.
func LookupSection(candidate string) (CatalogEntry, bool) {
	c := Canonicalize(candidate)
	if c == "" {
		return CatalogEntry{}, false
	}
	if e, ok := catalogIndex[c]; ok {
		return e, true
	}
	for _, pm := range partialMatches {
		if len(c) >= len(pm.keyword) && strings.Contains(c, pm.keyword) {
			return catalogIndex[pm.family], true
		}
	}
	return CatalogEntry{}, false
}

// IsTargetSection reports whether a candidate heading names a known section.
func IsTargetSection(candidate string) bool {
	_, ok := LookupSection(candidate)
	return ok
}
