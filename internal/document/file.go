package document

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Load reads path into a new, unmodified document
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("failed to read %s: not valid UTF-8", path)
	}
	d := New(string(data))
	d.path = path
	return d, nil
}

// Save writes the content to the document's path
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("save: document has no path")
	}
	return d.SaveAs(d.path)
}

// SaveAs writes the content to path and adopts it as the backing file
func (d *Document) SaveAs(path string) error {
	if err := WriteFile(path, d.text); err != nil {
		return err
	}
	d.path = path
	d.modified = false
	return nil
}

// WriteFile stores text at path, creating parent directories. It does not
// touch any Document, so it can run off the owner goroutine.
func WriteFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
