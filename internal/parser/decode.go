package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUndecodable is returned when the input is binary rather than text in
// any configured encoding.
var ErrUndecodable = errors.New("input is not decodable by any configured encoding")

// DecodeError reports which encodings were tried before giving up.
type DecodeError struct {
	Tried []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode filing: tried %s: %s", strings.Join(e.Tried, ", "), ErrUndecodable)
}

func (e *DecodeError) Unwrap() error { return ErrUndecodable }

// maxControlPercent is the share of stray control bytes above which input
// is treated as binary.
const maxControlPercent = 1

type encodingCandidate struct {
	name   string
	accept func([]byte) bool
	decode func([]byte) (string, error)
}

// Bytes 0x81, 0x8D, 0x8F, 0x90 and 0x9D have no Windows-1252 mapping.
var cp1252Undefined = [256]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

var encodingCandidates = []encodingCandidate{
	{
		name:   "utf-8",
		accept: utf8.Valid,
		decode: func(b []byte) (string, error) { return string(b), nil },
	},
	{
		name:   "latin-1",
		accept: acceptLatin1,
		decode: decodeWith(charmap.ISO8859_1),
	},
	{
		name: "windows-1252",
		accept: func(b []byte) bool {
			for _, c := range b {
				if cp1252Undefined[c] {
					return false
				}
			}
			return true
		},
		decode: decodeWith(charmap.Windows1252),
	},
	{
		name:   "iso-8859-1",
		accept: acceptLatin1,
		decode: decodeWith(charmap.ISO8859_1),
	},
}

// Decode converts raw filing bytes to text, trying UTF-8, Latin-1,
// Windows-1252 and ISO-8859-1 in that order. It returns the text and the
// name of the encoding used.
//
// When no candidate accepts every byte, the input is decoded as UTF-8 or
// Windows-1252, whichever it more resembles, with the offending bytes
// replaced by U+FFFD. Stray control bytes are replaced the same way. Only
// input dominated by control bytes fails, with a *DecodeError.
func Decode(b []byte) (string, string, error) {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	tried := make([]string, 0, len(encodingCandidates))
	for _, c := range encodingCandidates {
		tried = append(tried, c.name)
	}
	if looksBinary(b) {
		return "", "", &DecodeError{Tried: tried}
	}

	for _, c := range encodingCandidates {
		if !c.accept(b) {
			continue
		}
		s, err := c.decode(b)
		if err != nil {
			continue
		}
		return replaceControls(s), c.name, nil
	}

	if mostlyUTF8(b) {
		return replaceControls(strings.ToValidUTF8(string(b), string(utf8.RuneError))), "utf-8", nil
	}
	s, err := decodeWith(charmap.Windows1252)(b)
	if err != nil {
		return "", "", &DecodeError{Tried: tried}
	}
	return replaceControls(s), "windows-1252", nil
}

func decodeWith(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(b []byte) (string, error) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// acceptLatin1 rejects the C1 control range, which never appears in real
// Latin-1 text and usually means Windows-1252 punctuation.
func acceptLatin1(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 && c <= 0x9F {
			return false
		}
	}
	return true
}

func isStrayControl(c byte) bool {
	return c < 0x20 && c != '\t' && c != '\n' && c != '\r' && c != '\f'
}

// looksBinary reports input where more than maxControlPercent of the
// bytes are C0 controls other than tab, newline, form feed and carriage
// return.
func looksBinary(b []byte) bool {
	n := 0
	for _, c := range b {
		if isStrayControl(c) {
			n++
		}
	}
	return n > 0 && n*100 > len(b)*maxControlPercent
}

// mostlyUTF8 reports whether well-formed multi-byte sequences outnumber
// the bytes that break UTF-8.
func mostlyUTF8(b []byte) bool {
	valid, invalid := 0, 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size <= 1:
			invalid++
		case size > 1:
			valid++
		}
		b = b[size:]
	}
	return valid >= invalid && valid > 0
}

func replaceControls(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && isStrayControl(byte(r)) {
			return utf8.RuneError
		}
		return r
	}, s)
}
