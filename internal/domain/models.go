package domain

// SearchQuery describes what the find engine looks for
type SearchQuery struct {
	Pattern   string
	MatchCase bool
	WholeWord bool // mutually exclusive with UseRegex
	UseRegex  bool
}

// IsEmpty reports whether there is nothing to search for
func (q SearchQuery) IsEmpty() bool {
	return q.Pattern == ""
}

// WithWholeWord returns a copy with WholeWord set, clearing UseRegex when enabled
func (q SearchQuery) WithWholeWord(v bool) SearchQuery {
	q.WholeWord = v
	if v {
		q.UseRegex = false
	}
	return q
}

// WithUseRegex returns a copy with UseRegex set, clearing WholeWord when enabled
func (q SearchQuery) WithUseRegex(v bool) SearchQuery {
	q.UseRegex = v
	if v {
		q.WholeWord = false
	}
	return q
}

// Mode returns a short label for the active match strategy
func (q SearchQuery) Mode() string {
	switch {
	case q.UseRegex:
		return "regex"
	case q.WholeWord:
		return "word"
	default:
		return "plain"
	}
}

// TextRange is a half-open byte range [Index, Index+Length) into a document's text
type TextRange struct {
	Index  int
	Length int
}

// End returns the offset just past the range
func (r TextRange) End() int {
	return r.Index + r.Length
}

// Contains reports whether offset falls inside the range
func (r TextRange) Contains(offset int) bool {
	return offset >= r.Index && offset < r.End()
}

// Position is a zero-based line/column location; Column counts runes
type Position struct {
	Line   int
	Column int
}

// DocumentInfo summarises the open document for status displays
type DocumentInfo struct {
	Path     string
	Length   int
	Version  uint64
	Modified bool
}
