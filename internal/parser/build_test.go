package parser

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/secgest/internal/filing"
)

type failingPartitioner struct{ BlockPartitioner }

func (failingPartitioner) Partition(string) ([]Element, error) {
	return nil, errors.New("unsupported structure")
}

func (failingPartitioner) PartitionHTML(string) ([]Element, error) {
	return nil, errors.New("unsupported structure")
}

type panickingPartitioner struct{ BlockPartitioner }

func (panickingPartitioner) Partition(string) ([]Element, error) { panic("bad input") }

func TestBuild_SectionElements(t *testing.T) {
	sections := []filing.Section{{
		Title: "USE OF PROCEEDS",
		Level: 1,
		Text: "We estimate that the net proceeds to us from this offering will be approximately $92.4 million.\n" +
			"• to repay outstanding borrowings under our credit facility and related fees\n" +
			"Short line.",
	}}

	chunks := NewBuilder(nil, nil).Build(sections, "", filing.TypeS1)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].ElementType != filing.ElementParagraph {
		t.Errorf("expected paragraph, got %q", chunks[0].ElementType)
	}
	if chunks[1].ElementType != filing.ElementListItem {
		t.Errorf("expected list_item, got %q", chunks[1].ElementType)
	}
	for _, c := range chunks {
		if c.SectionTitle != "USE OF PROCEEDS" || c.SectionLevel != 1 || c.FilingType != filing.TypeS1 {
			t.Errorf("metadata not carried: %+v", c)
		}
	}
	if !chunks[0].HasFinancialData {
		t.Error("expected financial flag on first chunk")
	}
}

func TestBuild_PartitionFailureKeepsRawSection(t *testing.T) {
	text := "Purchasers of common stock in this offering will experience immediate dilution."
	sections := []filing.Section{{Title: "DILUTION", Level: 1, Text: text}}

	for name, p := range map[string]Partitioner{
		"error": failingPartitioner{},
		"panic": panickingPartitioner{},
	} {
		t.Run(name, func(t *testing.T) {
			chunks := NewBuilder(nil, p).Build(sections, "", filing.TypeS1A)
			if len(chunks) != 1 {
				t.Fatalf("expected 1 chunk, got %d", len(chunks))
			}
			if chunks[0].ElementType != filing.ElementRawSection || chunks[0].Text != text {
				t.Errorf("expected raw section chunk, got %+v", chunks[0])
			}
		})
	}
}

func TestBuild_EmptyPartitionKeepsRawSection(t *testing.T) {
	chunks := NewBuilder(nil, nil).Build([]filing.Section{{Title: "EXPERTS", Level: 1, Text: "   "}}, "", filing.TypeS1)
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank section text, got %+v", chunks)
	}
}

func TestBuild_OversizeElementSplit(t *testing.T) {
	text := strings.Repeat("Our revenue depends on a small number of customers. ", 400) // ~20,800 chars
	sections := []filing.Section{{Title: "RISK FACTORS", Level: 1, Text: text}}

	chunks := ValidateChunks(NewBuilder(nil, nil).Build(sections, "", filing.TypeS1))

	if len(chunks) < 3 {
		t.Fatalf("expected oversize text split into at least 3 chunks, got %d", len(chunks))
	}
	total := 0
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c.Text); n > MaxChunkChars {
			t.Errorf("chunk %d: %d chars", i, n)
		}
		total += c.WordCount
	}
	if want := len(strings.Fields(text)); total != want {
		t.Errorf("words lost in split: got %d, want %d", total, want)
	}
}

func TestBuild_FallbackFailureYieldsEmpty(t *testing.T) {
	chunks := NewBuilder(nil, failingPartitioner{}).Build(nil, "<p>whatever</p>", filing.TypeUnknown)
	if chunks == nil || len(chunks) != 0 {
		t.Errorf("expected empty non-nil chunk list, got %#v", chunks)
	}
}

func TestBlockPartitioner_Classify(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"RISKS RELATED TO OUR BUSINESS", filing.ElementTitle},
		{"Risk Factors", filing.ElementTitle},
		{"• We depend on key personnel.", filing.ElementListItem},
		{"(a) the underwriters may purchase additional shares", filing.ElementListItem},
		{"Revenue $ 1,200 $ 1,050 $ 980 14% 7%", filing.ElementTable},
		{"We were incorporated in Delaware in 2010.", filing.ElementParagraph},
	}
	for _, tt := range tests {
		if got := classifyLine(tt.line); got != tt.want {
			t.Errorf("classifyLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

const capitalizationHTML = `<html><body>
<h1>CAPITALIZATION</h1>
<p>The following table sets forth our cash and capitalization as of December 31, 2023.</p>
<table>
<tr><td></td><td><p>Actual</p></td><td><p>As Adjusted</p></td></tr>
<tr><td><p>Cash</p></td><td>$</td><td>12,400</td><td>$</td><td>98,100</td></tr>
<tr><td>Stockholders' equity:</td></tr>
<tr><td>Common stock</td><td>32,800</td><td>32,900</td></tr>
<tr><td>Total capitalization</td><td>$</td><td>45,200</td><td>$</td><td>131,000</td></tr>
</table>
</body></html>`

func TestBuild_SectionTableKeepsFigures(t *testing.T) {
	clean := Normalize(capitalizationHTML)
	sections := NewLocator(nil).Locate(clean)
	if len(sections) == 0 {
		t.Fatal("expected CAPITALIZATION section")
	}

	chunks := ValidateChunks(NewBuilder(nil, nil).Build(sections, clean, filing.TypeS1))

	var table *filing.Chunk
	for i := range chunks {
		if chunks[i].ElementType == filing.ElementTable {
			table = &chunks[i]
			break
		}
	}
	if table == nil {
		t.Fatalf("expected a table chunk, got %+v", chunks)
	}
	for _, want := range []string{"Cash $12,400 $98,100", "Stockholders' equity:", "Total capitalization $45,200 $131,000"} {
		if !strings.Contains(table.Text, want) {
			t.Errorf("table chunk missing %q: %q", want, table.Text)
		}
	}
	if table.SectionTitle != "CAPITALIZATION" {
		t.Errorf("expected CAPITALIZATION, got %q", table.SectionTitle)
	}
	if !table.HasFinancialData {
		t.Error("expected financial flag on table chunk")
	}
}

func TestBuild_FallbackTableMatchesSectionTable(t *testing.T) {
	clean := Normalize(capitalizationHTML)
	chunks := ValidateChunks(NewBuilder(nil, nil).Build(nil, clean, filing.TypeUnknown))

	found := false
	for _, c := range chunks {
		if c.ElementType == filing.ElementTable && strings.Contains(c.Text, "Total capitalization $45,200 $131,000") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected whole table in fallback chunks, got %+v", chunks)
	}
}

func TestBlockPartitioner_GroupsTableRows(t *testing.T) {
	text := "Intro paragraph that explains the table below in enough words.\n" +
		"Cash\t$12,400\t$98,100\n" +
		"Stockholders' equity:\n" +
		"Total capitalization\t$45,200\t$131,000\n" +
		"Closing paragraph after the table with more explanatory words."

	elements, err := BlockPartitioner{}.Partition(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elements) != 3 {
		t.Fatalf("expected 3 elements, got %d: %+v", len(elements), elements)
	}
	want := "Cash $12,400 $98,100\nStockholders' equity:\nTotal capitalization $45,200 $131,000"
	if elements[1].Type != filing.ElementTable || elements[1].Text != want {
		t.Errorf("expected grouped table, got %+v", elements[1])
	}
	if elements[2].Type != filing.ElementParagraph {
		t.Errorf("expected trailing paragraph, got %q", elements[2].Type)
	}
}

func TestCleanRow_JoinsSignCells(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Cash\t$\t12,400\t \t$\t98,100", "Cash\t$12,400\t$98,100"},
		{"Margin\t5.2\t%\t(1.4\t)", "Margin\t5.2%\t(1.4)"},
		{"  Plain   line  ", "Plain line"},
	}
	for _, tt := range tests {
		if got := cleanRow(tt.in); got != tt.want {
			t.Errorf("cleanRow(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
