package find

import (
	"context"
	"errors"
	"slices"
	"time"

	"sharppad/internal/dispatch"
	"sharppad/internal/domain"
	"sharppad/internal/tasks"
)

// pass is the outcome of one background scan
type pass struct {
	results []domain.TextRange
	version uint64
	fault   error
	invalid bool
}

// search is the coalesced callback. It loops until a pass completes
// against an unchanged query and document, or the model is closed.
func (m *Model) search(ctx context.Context) error {
	started := time.Now()
	retries := 0

	for {
		m.mu.Lock()
		m.invalid = false
		q := m.query
		closed := m.closed
		m.mu.Unlock()

		if closed || ctx.Err() != nil {
			m.setSearching(false)
			return nil
		}
		if q.IsEmpty() {
			m.finishEmpty()
			return nil
		}

		m.setSearching(true)
		p, err := m.runPass(ctx, q)
		if err != nil {
			m.setSearching(false)
			return nil
		}

		if p.invalid {
			retries++
			m.logger.Debug("find: pass invalidated", "pattern", q.Pattern, "retries", retries)
			if !sleep(ctx, m.retryBackoff) {
				m.setSearching(false)
				return nil
			}
			// this loop restarts itself; the pending follow-up run is redundant
			m.action.ClearCriticalState()
			continue
		}

		if m.beforePublish != nil {
			m.beforePublish()
		}
		if !m.publish(p) {
			retries++
			m.action.ClearCriticalState()
			continue
		}

		m.report(q, p, retries, time.Since(started))
		return nil
	}
}

// runPass scans the document in a background task and waits for it.
// An error means the pass was cancelled or failed and nothing should be published.
func (m *Model) runPass(ctx context.Context, q domain.SearchQuery) (pass, error) {
	var p pass
	m.progress.SetCompletion(0)

	task := m.manager.Run(ctx, "search", func(ctx context.Context, prog tasks.Progress) error {
		var text string
		err := m.dispatcher.Invoke(ctx, func() {
			text = m.doc.Text()
			p.version = m.doc.Version()
		})
		if errors.Is(err, dispatch.ErrClosed) {
			return context.Canceled
		}
		if err != nil {
			return err
		}

		mt, err := compileMatcher(q, m.locale)
		if err != nil {
			p.fault = err
			return nil
		}

		results, invalid, err := m.scan(ctx, mt, text, prog)
		if err != nil {
			return err
		}
		p.results, p.invalid = results, invalid
		return nil
	}, tasks.WithProgress(m.progress))

	if err := task.Wait(ctx); err != nil {
		return pass{}, err
	}
	if task.IsCancelled() {
		return pass{}, context.Canceled
	}
	if err := task.Err(); err != nil {
		// already reported by the task manager
		return pass{}, err
	}
	return p, nil
}

// scan collects non-overlapping matches left to right, checking for
// invalidation and cancellation every checkpoint batch
func (m *Model) scan(ctx context.Context, mt matcher, text string, prog tasks.Progress) ([]domain.TextRange, bool, error) {
	var results []domain.TextRange
	pos := 0
	for pos <= len(text) {
		r, ok := mt.next(text, pos)
		if !ok {
			break
		}
		results = append(results, r)
		pos = r.End()

		if len(results)%m.checkpointBatch != 0 {
			continue
		}
		if m.isInvalid() {
			return nil, true, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if len(results) > m.progressThreshold && len(text) > 0 {
			prog.SetCompletion(float64(pos) / float64(len(text)))
		}
	}
	if m.isInvalid() {
		return nil, true, nil
	}
	return results, false, nil
}

func (m *Model) isInvalid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalid
}

// publish swaps in the results of a clean pass. It returns false when the
// model was invalidated after the pass finished, in which case nothing is
// published and the caller must search again.
func (m *Model) publish(p pass) bool {
	m.mu.Lock()
	if m.closed {
		m.searching = false
		m.mu.Unlock()
		return true
	}
	if m.invalid {
		m.mu.Unlock()
		return false
	}

	var props []Property
	if p.fault != nil {
		props = m.clearResultsLocked()
		if !m.faulted || m.faultMessage != p.fault.Error() {
			props = append(props, PropertyFault)
		}
		m.faulted = true
		m.faultMessage = p.fault.Error()
	} else {
		if !slices.Equal(m.results, p.results) {
			m.results = p.results
			props = append(props, PropertyResults)
			if m.current != -1 {
				m.current = -1
				props = append(props, PropertyCurrentResultIndex)
			}
		}
		if m.faulted {
			m.faulted = false
			m.faultMessage = ""
			props = append(props, PropertyFault)
		}
	}
	m.resultsVersion = p.version
	if m.searching {
		m.searching = false
		props = append(props, PropertySearching)
	}
	m.mu.Unlock()

	m.post(props...)
	return true
}

func (m *Model) report(q domain.SearchQuery, p pass, retries int, elapsed time.Duration) {
	if p.fault != nil {
		m.logger.Info("find: pattern rejected", "pattern", q.Pattern, "error", p.fault)
		if m.bus != nil {
			m.bus.Publish(domain.SearchFaultedEvent{Query: q, Message: p.fault.Error()})
		}
		return
	}
	m.logger.Debug("find: pass complete", "pattern", q.Pattern, "mode", q.Mode(),
		"matches", len(p.results), "retries", retries, "duration", elapsed)
	if m.bus != nil {
		m.bus.Publish(domain.SearchCompletedEvent{
			Query:    q,
			Matches:  len(p.results),
			Retries:  retries,
			Duration: elapsed,
		})
	}
}

// finishEmpty handles a run whose pattern became empty before it started
func (m *Model) finishEmpty() {
	m.mu.Lock()
	props := m.clearResultsLocked()
	if m.faulted {
		m.faulted = false
		m.faultMessage = ""
		props = append(props, PropertyFault)
	}
	if m.searching {
		m.searching = false
		props = append(props, PropertySearching)
	}
	m.mu.Unlock()

	m.post(props...)
}

func (m *Model) setSearching(v bool) {
	m.mu.Lock()
	changed := m.searching != v
	m.searching = v
	m.mu.Unlock()

	if changed {
		m.post(PropertySearching)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
