package find

import (
	"fmt"
	"strings"

	"sharppad/internal/domain"
)

// ReplaceCurrent replaces the selected match with repl and returns the
// range of the inserted text. For regex queries repl may reference groups
// as $1 or ${name}.
func (m *Model) ReplaceCurrent(repl string) (domain.TextRange, error) {
	version := m.doc.Version()

	m.mu.Lock()
	if m.current < 0 {
		m.mu.Unlock()
		return domain.TextRange{}, ErrNoCurrentResult
	}
	if m.resultsVersion != version {
		m.mu.Unlock()
		return domain.TextRange{}, fmt.Errorf("%w: computed for version %d, document is at %d", ErrStaleResults, m.resultsVersion, version)
	}
	r := m.results[m.current]
	q := m.query
	m.mu.Unlock()

	expand, err := newExpander(q, repl)
	if err != nil {
		return domain.TextRange{}, err
	}
	text, err := expand(m.doc.Text(), r)
	if err != nil {
		return domain.TextRange{}, err
	}
	if err := m.doc.Replace(r.Index, r.Length, text); err != nil {
		return domain.TextRange{}, err
	}
	return domain.TextRange{Index: r.Index, Length: len(text)}, nil
}

// ReplaceAll replaces every published match as a single document change
// and returns how many were replaced
func (m *Model) ReplaceAll(repl string) (int, error) {
	version := m.doc.Version()

	m.mu.Lock()
	if len(m.results) > 0 && m.resultsVersion != version {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: computed for version %d, document is at %d", ErrStaleResults, m.resultsVersion, version)
	}
	results := m.results
	q := m.query
	m.mu.Unlock()

	if len(results) == 0 {
		return 0, nil
	}
	expand, err := newExpander(q, repl)
	if err != nil {
		return 0, err
	}

	text := m.doc.Text()
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, r := range results {
		s, err := expand(text, r)
		if err != nil {
			return 0, err
		}
		b.WriteString(text[last:r.Index])
		b.WriteString(s)
		last = r.End()
	}
	b.WriteString(text[last:])

	m.doc.SetText(b.String())
	return len(results), nil
}

// newExpander returns the function producing the replacement for the match
// at r. Regex templates are expanded against the whole text so assertions
// see the same context the search did.
func newExpander(q domain.SearchQuery, repl string) (func(text string, r domain.TextRange) (string, error), error) {
	if !q.UseRegex {
		return func(string, domain.TextRange) (string, error) { return repl, nil }, nil
	}
	rm, err := newRegexMatcher(q)
	if err != nil {
		return nil, err
	}
	return func(text string, r domain.TextRange) (string, error) {
		s, ok := rm.expand(text, r, repl)
		if !ok {
			return "", fmt.Errorf("%w: no match at offset %d", ErrStaleResults, r.Index)
		}
		return s, nil
	}, nil
}
