package document

import (
	"strings"
	"unicode/utf8"

	"sharppad/internal/domain"
)

// PositionOf converts a byte offset into a line/column pair. Columns count runes.
func PositionOf(text string, offset int) domain.Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return domain.Position{
		Line:   line,
		Column: utf8.RuneCountInString(before[lineStart:]),
	}
}

// LineAt returns the full line containing offset, without its newline
func LineAt(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

// OffsetOf converts a line/column pair back into a byte offset, clamping
// positions past the end of a line or of the text
func OffsetOf(text string, pos domain.Position) int {
	offset := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	for col := 0; col < pos.Column && offset < len(text) && text[offset] != '\n'; col++ {
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}
	return offset
}
