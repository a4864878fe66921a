// Package document holds the editable text buffer.
//
// A Document is not safe for concurrent use. It belongs to one owner
// goroutine (the UI loop); other goroutines reach it through a
// dispatch.Dispatcher.
package document

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"sharppad/internal/domain"
	"sharppad/internal/notify"
)

// ErrOutOfRange is returned for edits outside the buffer or splitting a rune
var ErrOutOfRange = errors.New("offset out of range")

// Change describes one edit: Removed bytes at Offset were replaced by Inserted bytes
type Change struct {
	Offset   int
	Removed  int
	Inserted int
	Version  uint64
}

// Document is a mutable UTF-8 text buffer with change notification
type Document struct {
	text     string
	path     string
	version  uint64
	modified bool
	changes  notify.List[Change]
}

// New creates an unmodified document holding text
func New(text string) *Document {
	return &Document{text: text}
}

// Text returns the full content
func (d *Document) Text() string { return d.text }

// Len returns the content length in bytes
func (d *Document) Len() int { return len(d.text) }

// Version increases with every edit
func (d *Document) Version() uint64 { return d.version }

// Path is the file backing the document, if any
func (d *Document) Path() string { return d.path }

// SetPath changes the backing file without touching content
func (d *Document) SetPath(path string) { d.path = path }

// Modified reports unsaved edits
func (d *Document) Modified() bool { return d.modified }

// MarkSaved clears the modified flag
func (d *Document) MarkSaved() { d.modified = false }

// Info summarises the document for status displays
func (d *Document) Info() domain.DocumentInfo {
	return domain.DocumentInfo{
		Path:     d.path,
		Length:   len(d.text),
		Version:  d.version,
		Modified: d.modified,
	}
}

// Subscribe registers fn for change notifications. It returns an unsubscribe function.
func (d *Document) Subscribe(fn func(Change)) func() {
	return d.changes.Subscribe(fn)
}

// Slice returns the text covered by r
func (d *Document) Slice(r domain.TextRange) (string, error) {
	if err := d.checkRange(r.Index, r.Length); err != nil {
		return "", err
	}
	return d.text[r.Index:r.End()], nil
}

// Insert adds s at offset
func (d *Document) Insert(offset int, s string) error {
	return d.Replace(offset, 0, s)
}

// Delete removes length bytes at offset
func (d *Document) Delete(offset, length int) error {
	return d.Replace(offset, length, "")
}

// Replace swaps length bytes at offset for s
func (d *Document) Replace(offset, length int, s string) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}
	if length == 0 && s == "" {
		return nil
	}
	d.text = d.text[:offset] + s + d.text[offset+length:]
	d.apply(Change{Offset: offset, Removed: length, Inserted: len(s)})
	return nil
}

// SetText replaces the whole content. The change notification covers only
// the span that differs, so a keystroke mirrored from an editor widget
// reports a one-character edit. Setting identical text is a no-op.
func (d *Document) SetText(s string) {
	if s == d.text {
		return
	}
	old := d.text
	prefix := commonPrefix(old, s)
	suffix := commonSuffix(old[prefix:], s[prefix:])

	d.text = s
	d.apply(Change{
		Offset:   prefix,
		Removed:  len(old) - prefix - suffix,
		Inserted: len(s) - prefix - suffix,
	})
}

func (d *Document) apply(c Change) {
	d.version++
	d.modified = true
	c.Version = d.version
	d.changes.Notify(c)
}

func (d *Document) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(d.text) {
		return fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, offset, offset+length, len(d.text))
	}
	if !onBoundary(d.text, offset) || !onBoundary(d.text, offset+length) {
		return fmt.Errorf("%w: offset splits a UTF-8 sequence", ErrOutOfRange)
	}
	return nil
}

func onBoundary(s string, i int) bool {
	return i == 0 || i == len(s) || utf8.RuneStart(s[i])
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	// back up to a rune start so the change never splits a character
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	return i
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	for i > 0 && !utf8.RuneStart(a[len(a)-i]) {
		i--
	}
	return i
}
