package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode_Candidates(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		wantText string
		wantEnc  string
	}{
		{"utf8", []byte("Caf\xc3\xa9 prospectus"), "Café prospectus", "utf-8"},
		{"utf8 bom", []byte("\xef\xbb\xbfRisk Factors"), "Risk Factors", "utf-8"},
		{"latin1", []byte("Caf\xe9 prospectus"), "Café prospectus", "latin-1"},
		{"windows-1252 quotes", []byte("\x93Our Company\x94"), "“Our Company”", "windows-1252"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantText {
				t.Errorf("text: expected %q, got %q", tt.wantText, got)
			}
			if enc != tt.wantEnc {
				t.Errorf("encoding: expected %q, got %q", tt.wantEnc, enc)
			}
		})
	}
}

func TestDecode_UndecodableIsFatal(t *testing.T) {
	inputs := [][]byte{
		{0x00, 0x81, 0x9D},
		{'a', 0x01, 0xff},
	}
	for _, in := range inputs {
		got, _, err := Decode(in)
		if err == nil {
			t.Fatalf("expected error for %x, got text %q", in, got)
		}
		if !errors.Is(err, ErrUndecodable) {
			t.Errorf("expected ErrUndecodable, got %v", err)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected *DecodeError, got %T", err)
		}
		if len(de.Tried) != 4 {
			t.Errorf("expected 4 encodings tried, got %v", de.Tried)
		}
	}
}

func TestDecode_StrayBytesAreReplaced(t *testing.T) {
	body := strings.Repeat("The underwriters have agreed to purchase the shares offered. ", 4)
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantEnc string
	}{
		{
			name:    "utf8 with stray byte",
			in:      []byte("We\xe2\x80\x99re offering shares\x81. " + body),
			want:    "We’re offering shares\ufffd. " + body,
			wantEnc: "utf-8",
		},
		{
			name:    "utf8 with nul",
			in:      []byte("Risk Factors\x00 " + body),
			want:    "Risk Factors\ufffd " + body,
			wantEnc: "utf-8",
		},
		{
			name:    "windows-1252 with undefined byte",
			in:      []byte("\x93Our Company\x94 \x81" + body),
			wantEnc: "windows-1252",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc != tt.wantEnc {
				t.Errorf("encoding: expected %q, got %q", tt.wantEnc, enc)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("text: expected %q, got %q", tt.want, got)
			}
			if !strings.Contains(got, "underwriters have agreed") {
				t.Errorf("body lost: %q", got)
			}
		})
	}
}
