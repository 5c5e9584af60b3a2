package chunker

import (
	"strings"
	"unicode/utf8"
)

// Config controls splitting behavior.
type Config struct {
	MaxChars     int // Hard upper bound on piece length in characters.
	ChunkOverlap int // Overlap between consecutive pieces in tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChars:     8000,
		ChunkOverlap: 0,
	}
}

// Split breaks text into pieces of at most cfg.MaxChars characters,
// preferring paragraph boundaries, then sentence boundaries, then words.
// Text that already fits is returned as a single piece.
func Split(text string, cfg Config) []string {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 8000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= cfg.MaxChars {
		return []string{text}
	}
	return splitText(text, cfg.MaxChars, cfg.ChunkOverlap)
}

// splitText packs paragraphs into pieces of at most maxChars, with overlap.
func splitText(text string, maxChars, overlapTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder

	for _, para := range paragraphs {
		// If a single paragraph exceeds the limit, split it further.
		if runeLen(para) > maxChars {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			result = append(result, splitBySentences(para, maxChars, overlapTokens)...)
			continue
		}

		if current.Len() > 0 && runeLen(current.String())+2+runeLen(para) > maxChars {
			prev := current.String()
			result = append(result, prev)
			current.Reset()
			if overlap := getOverlapText(prev, overlapTokens); overlap != "" && runeLen(overlap)+2+runeLen(para) <= maxChars {
				current.WriteString(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on blank lines, falling back to single newlines.
func splitByParagraphs(text string) []string {
	sep := "\n\n"
	if !strings.Contains(text, sep) {
		sep = "\n"
	}
	parts := strings.Split(text, sep)
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based pieces.
func splitBySentences(text string, maxChars, overlapTokens int) []string {
	var result []string
	var current strings.Builder

	for _, sent := range splitSentences(text) {
		// A single run-on sentence is cut at word boundaries.
		if runeLen(sent) > maxChars {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			result = append(result, splitByWords(sent, maxChars)...)
			continue
		}

		if current.Len() > 0 && runeLen(current.String())+1+runeLen(sent) > maxChars {
			prev := current.String()
			result = append(result, prev)
			current.Reset()
			if overlap := getOverlapText(prev, overlapTokens); overlap != "" && runeLen(overlap)+1+runeLen(sent) <= maxChars {
				current.WriteString(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByWords is the last resort for text without sentence punctuation.
func splitByWords(text string, maxChars int) []string {
	var result []string
	var current strings.Builder
	for _, w := range strings.Fields(text) {
		if runeLen(w) > maxChars {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			r := []rune(w)
			for len(r) > maxChars {
				result = append(result, string(r[:maxChars]))
				r = r[maxChars:]
			}
			current.WriteString(string(r))
			continue
		}
		if current.Len() > 0 && runeLen(current.String())+1+runeLen(w) > maxChars {
			result = append(result, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(w)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
