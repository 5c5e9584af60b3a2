package parser

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Risk Factors", "RISK FACTORS"},
		{"  Management’s Discussion\n and Analysis ", "MANAGEMENTS DISCUSSION AND ANALYSIS"},
		{"ITEM 1A. RISK FACTORS", "ITEM 1A RISK FACTORS"},
		{"***", ""},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTargetSection(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"RISK FACTORS", true},
		{"Use of Proceeds", true},
		{"Management's Discussion and Analysis of Financial Condition and Results of Operations", true},
		{"Risks Related to Our Business", true},
		{"Underwriters", true},
		{"Principal Shareholders", true},
		{"Overview", true},
		{"Glossary of Terms", false},
		{"Forward Looking Info", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsTargetSection(tt.title); got != tt.want {
			t.Errorf("IsTargetSection(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestLookupSection_Levels(t *testing.T) {
	e, ok := LookupSection("Summary Consolidated Financial Data")
	if !ok {
		t.Fatal("expected match")
	}
	if e.Level != 2 {
		t.Errorf("expected level 2, got %d", e.Level)
	}

	e, ok = LookupSection("Risks related to this offering")
	if !ok {
		t.Fatal("expected partial match")
	}
	if e.Name != "RISK FACTORS" || e.Level != 1 {
		t.Errorf("expected RISK FACTORS level 1, got %+v", e)
	}
}
