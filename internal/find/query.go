package find

import "sharppad/internal/domain"

func normalizeQuery(q domain.SearchQuery) domain.SearchQuery {
	if q.UseRegex {
		q.WholeWord = false
	}
	return q
}

// SetPattern changes the search text and invalidates the results
func (m *Model) SetPattern(pattern string) {
	m.update(func(q domain.SearchQuery) domain.SearchQuery {
		q.Pattern = pattern
		return q
	})
}

// SetMatchCase toggles case-sensitive matching and invalidates the results
func (m *Model) SetMatchCase(v bool) {
	m.update(func(q domain.SearchQuery) domain.SearchQuery {
		q.MatchCase = v
		return q
	})
}

// SetWholeWord toggles whole-word matching. Enabling it disables regex.
func (m *Model) SetWholeWord(v bool) {
	m.update(func(q domain.SearchQuery) domain.SearchQuery {
		return q.WithWholeWord(v)
	})
}

// SetUseRegex toggles regular expressions. Enabling it disables whole-word.
func (m *Model) SetUseRegex(v bool) {
	m.update(func(q domain.SearchQuery) domain.SearchQuery {
		return q.WithUseRegex(v)
	})
}

// SetQuery replaces every query field at once
func (m *Model) SetQuery(next domain.SearchQuery) {
	m.update(func(domain.SearchQuery) domain.SearchQuery {
		return normalizeQuery(next)
	})
}

// update applies fn, notifies the fields that actually changed and
// invalidates unconditionally
func (m *Model) update(fn func(domain.SearchQuery) domain.SearchQuery) {
	m.mu.Lock()
	prev := m.query
	m.query = fn(prev)
	next := m.query
	m.mu.Unlock()

	var props []Property
	if prev.Pattern != next.Pattern {
		props = append(props, PropertyPattern)
	}
	if prev.MatchCase != next.MatchCase {
		props = append(props, PropertyMatchCase)
	}
	if prev.WholeWord != next.WholeWord {
		props = append(props, PropertyWholeWord)
	}
	if prev.UseRegex != next.UseRegex {
		props = append(props, PropertyUseRegex)
	}
	m.notify(props...)

	m.Invalidate()
}
