package find

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"sharppad/internal/domain"
)

// matcher finds the first match starting at or after from.
// A false return means there are no more matches.
type matcher interface {
	next(text string, from int) (domain.TextRange, bool)
}

// compileMatcher builds the strategy selected by q
func compileMatcher(q domain.SearchQuery, locale language.Tag) (matcher, error) {
	switch {
	case q.UseRegex:
		m, err := newRegexMatcher(q)
		if err != nil {
			return nil, err
		}
		return m, nil
	case q.WholeWord:
		return wordMatcher{plain: newPlainMatcher(q, locale)}, nil
	default:
		return newPlainMatcher(q, locale), nil
	}
}

func compileRegex(q domain.SearchQuery) (*regexp.Regexp, error) {
	pattern := q.Pattern
	if !q.MatchCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression: %w", err)
	}
	return re, nil
}

// plainMatcher is a locale-aware substring search
type plainMatcher struct {
	pattern *search.Pattern
}

func newPlainMatcher(q domain.SearchQuery, locale language.Tag) plainMatcher {
	var opts []search.Option
	if !q.MatchCase {
		opts = append(opts, search.IgnoreCase)
	}
	m := search.New(locale, opts...)
	return plainMatcher{pattern: m.CompileString(q.Pattern)}
}

func (p plainMatcher) next(text string, from int) (domain.TextRange, bool) {
	for from < len(text) {
		start, end := p.pattern.IndexString(text[from:])
		if start < 0 {
			return domain.TextRange{}, false
		}
		if end > start {
			return domain.TextRange{Index: from + start, Length: end - start}, true
		}
		// an empty match (ignorable runes only) cannot advance the scan
		_, size := utf8.DecodeRuneInString(text[from+start:])
		from += start + size
	}
	return domain.TextRange{}, false
}

// wordMatcher accepts plain matches bounded by non-alphanumeric runes or
// the buffer edges
type wordMatcher struct {
	plain plainMatcher
}

func (w wordMatcher) next(text string, from int) (domain.TextRange, bool) {
	for {
		r, ok := w.plain.next(text, from)
		if !ok {
			return r, false
		}
		if isWordBoundary(text, r.Index, r.End()) {
			return r, true
		}
		// retry one rune further so "cats cat" still finds the second word
		_, size := utf8.DecodeRuneInString(text[r.Index:])
		from = r.Index + size
	}
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(before) {
			return false
		}
	}
	if end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(after) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// regexMatcher finds matches one at a time so a scan can stop between
// them. Zero-length matches are skipped.
type regexMatcher struct {
	re *regexp.Regexp
	// re behind one consumed rune, for searching from inside the text with
	// the preceding rune still visible to \b, \B and (?m)^
	lead *regexp.Regexp
}

func newRegexMatcher(q domain.SearchQuery) (regexMatcher, error) {
	re, err := compileRegex(q)
	if err != nil {
		return regexMatcher{}, err
	}
	// normalised so an open-ended \Q cannot swallow the wrapping group
	tree, err := syntax.Parse(re.String(), syntax.Perl)
	if err != nil {
		return regexMatcher{}, fmt.Errorf("invalid regular expression: %w", err)
	}
	lead, err := regexp.Compile(`(?s:.)(?:` + tree.String() + `)`)
	if err != nil {
		return regexMatcher{}, fmt.Errorf("invalid regular expression: %w", err)
	}
	return regexMatcher{re: re, lead: lead}, nil
}

func (m regexMatcher) next(text string, from int) (domain.TextRange, bool) {
	for from <= len(text) {
		loc := m.submatchAt(text, from)
		if loc == nil {
			return domain.TextRange{}, false
		}
		if loc[1] > loc[0] {
			return domain.TextRange{Index: loc[0], Length: loc[1] - loc[0]}, true
		}
		if loc[0] >= len(text) {
			return domain.TextRange{}, false
		}
		_, size := utf8.DecodeRuneInString(text[loc[0]:])
		from = loc[0] + size
	}
	return domain.TextRange{}, false
}

// submatchAt returns the submatch indices of the leftmost match starting at
// or after from, as if the whole text had been searched
func (m regexMatcher) submatchAt(text string, from int) []int {
	if from == 0 {
		return m.re.FindStringSubmatchIndex(text)
	}
	_, size := utf8.DecodeLastRuneInString(text[:from])
	base := from - size
	loc := m.lead.FindStringSubmatchIndex(text[base:])
	if loc == nil {
		return nil
	}
	_, skip := utf8.DecodeRuneInString(text[base+loc[0]:])
	loc[0] += skip
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += base
		}
	}
	return loc
}

// expand renders template for the match at r
func (m regexMatcher) expand(text string, r domain.TextRange, template string) (string, bool) {
	loc := m.submatchAt(text, r.Index)
	if loc == nil || loc[0] != r.Index || loc[1] != r.End() {
		return "", false
	}
	return string(m.re.ExpandString(nil, template, text, loc)), true
}
