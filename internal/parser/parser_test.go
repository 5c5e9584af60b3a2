package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/secgest/internal/filing"
)

func TestParse_RiskFactorsEndToEnd(t *testing.T) {
	htmlText := `<html><head><title>Acme</title><style>p{margin:0}</style></head><body>
<div>FORM S-1 REGISTRATION STATEMENT</div>
<h1>RISK FACTORS</h1>
<p>` + riskPara1 + `</p>
<p>` + riskPara2 + `</p>
<p>` + riskPara3 + `</p>
</body></html>`

	chunks, err := New(nil).Parse(filing.RawDocument{Locator: "filings/ACME/s-1.html", Content: []byte(htmlText)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	found := false
	for _, c := range chunks {
		if c.SectionTitle == "RISK FACTORS" {
			found = true
		}
		if c.FilingType != filing.TypeS1 {
			t.Errorf("expected filing type S-1, got %q", c.FilingType)
		}
		if c.Source != "filings/ACME/s-1.html" {
			t.Errorf("expected source to be carried, got %q", c.Source)
		}
	}
	if !found {
		t.Errorf("expected a RISK FACTORS chunk, got %+v", chunks)
	}
	assertWellFormedChunks(t, chunks)
}

func TestParse_FallbackWithoutSections(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "<p>Paragraph number %d describes the company and its plans for growth in detail.</p>", i)
	}
	b.WriteString("</body></html>")

	chunks, err := New(nil).Parse(filing.RawDocument{Locator: "plain.html", Content: []byte(b.String())})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d: %+v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.SectionTitle != filing.UnknownSection || c.SectionLevel != 0 {
			t.Errorf("chunk %d: expected UNKNOWN level 0, got %q level %d", i, c.SectionTitle, c.SectionLevel)
		}
		if !strings.Contains(c.Text, fmt.Sprintf("number %d", i+1)) {
			t.Errorf("chunk %d out of order: %q", i, c.Text)
		}
	}
	assertWellFormedChunks(t, chunks)
}

func TestParse_FormTypeLabelFallback(t *testing.T) {
	htmlText := "<p>The shares offered hereby are described in detail in the sections that follow below.</p>"
	res, err := New(nil).ParseDetailed(filing.RawDocument{Locator: "x", FormType: "s-1-a-2024-01-05", Content: []byte(htmlText)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FilingType != filing.TypeS1A {
		t.Errorf("expected S-1/A from label, got %q", res.FilingType)
	}
	if res.Encoding != "utf-8" {
		t.Errorf("expected utf-8, got %q", res.Encoding)
	}
}

func TestParse_DecodeFailureIsFatal(t *testing.T) {
	chunks, err := New(nil).Parse(filing.RawDocument{Locator: "bad.html", Content: []byte{0x00, 0x81, 0x8d, 0x9d}})
	if err == nil {
		t.Fatalf("expected error, got %d chunks", len(chunks))
	}
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable, got %v", err)
	}
	if chunks != nil {
		t.Errorf("expected nil chunks, got %+v", chunks)
	}
}

func TestParse_ConcurrentUse(t *testing.T) {
	p := New(nil)
	doc := filing.RawDocument{Content: []byte("<h1>Dilution</h1><p>" + riskPara3 + "</p>")}
	done := make(chan int, 8)
	for range 8 {
		go func() {
			chunks, _ := p.Parse(doc)
			done <- len(chunks)
		}()
	}
	first := <-done
	for range 7 {
		if n := <-done; n != first {
			t.Errorf("concurrent parses disagree: %d vs %d", n, first)
		}
	}
}

func assertWellFormedChunks(t *testing.T, chunks []filing.Chunk) {
	t.Helper()
	for i, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		if n < MinChunkChars || n > MaxChunkChars {
			t.Errorf("chunk %d: length %d out of bounds", i, n)
		}
		if c.ChunkLength != n {
			t.Errorf("chunk %d: chunk_length %d, text length %d", i, c.ChunkLength, n)
		}
		meaningful := strings.TrimSpace(symbolRe.ReplaceAllString(c.Text, ""))
		if utf8.RuneCountInString(meaningful) < minMeaningfulChars {
			t.Errorf("chunk %d: too little meaningful text %q", i, c.Text)
		}
	}
}
