package filing

// FilingType classifies a registration document.
type FilingType string

const (
	TypeS1         FilingType = "S-1"
	TypeS1A        FilingType = "S-1/A"
	Type424B4      FilingType = "424B4"
	TypeProspectus FilingType = "PROSPECTUS"
	TypeUnknown    FilingType = "UNKNOWN"
)

// RawDocument is one filing as supplied by the fetch layer.
type RawDocument struct {
	Locator  string // File path or registry URL the bytes came from.
	FormType string // Nominal form label or filename stem, used only as metadata fallback.
	Content  []byte
}

// Section is a detected regulatory section of a filing.
type Section struct {
	Title      string // Canonical upper-case title, e.g. "RISK FACTORS"
	Text       string // Raw extracted content, not yet chunk-sized
	Level      int    // 1 = top-level section, 2 = subsection
	PageNumber int    // From the table of contents (0 if unknown)
}

// Element types carried on chunks.
const (
	ElementChunk      = "chunk"
	ElementRawSection = "raw_section"
	ElementParagraph  = "paragraph"
	ElementTitle      = "title"
	ElementListItem   = "list_item"
	ElementTable      = "table"
)

// UnknownSection is the section title given to chunks cut from a filing
// with no recognizable sections.
const UnknownSection = "UNKNOWN"

// Chunk is the retrievable unit produced by the parser.
type Chunk struct {
	Text             string     `json:"text"`
	ElementType      string     `json:"element_type"`
	SectionTitle     string     `json:"section_title"`
	SectionLevel     int        `json:"section_level"`
	FilingType       FilingType `json:"filing_type"`
	ChunkLength      int        `json:"chunk_length"`
	WordCount        int        `json:"word_count"`
	HasFinancialData bool       `json:"has_financial_data"`
	Source           string     `json:"source,omitempty"`
}

// Metadata returns the chunk's metadata bag as stored alongside its vector.
func (c Chunk) Metadata() map[string]any {
	m := map[string]any{
		"element_type":       c.ElementType,
		"section_title":      c.SectionTitle,
		"section_level":      c.SectionLevel,
		"filing_type":        string(c.FilingType),
		"chunk_length":       c.ChunkLength,
		"word_count":         c.WordCount,
		"has_financial_data": c.HasFinancialData,
	}
	if c.Source != "" {
		m["source"] = c.Source
	}
	return m
}
