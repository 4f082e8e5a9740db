// Package clipboard reads and writes the system clipboard and remembers what
// it replaced so the previous content can be restored.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
	"gitlab.com/tozd/go/errors"
)

// ErrNothingToRestore is returned by Restore when no write was recorded.
var ErrNothingToRestore = errors.Base("no previous clipboard content")

// Clipboard is text clipboard access.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// System is the OS clipboard.
type System struct{}

// ReadAll returns the clipboard text.
func (System) ReadAll() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", errors.Errorf("reading clipboard: %w", err)
	}
	return text, nil
}

// WriteAll replaces the clipboard text.
func (System) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// Manager wraps a Clipboard and keeps the content its last write replaced.
type Manager struct {
	cb Clipboard

	mu       sync.Mutex
	previous *string
	written  string
}

// NewManager wraps cb. A nil cb uses the OS clipboard.
func NewManager(cb Clipboard) *Manager {
	if cb == nil {
		cb = System{}
	}
	return &Manager{cb: cb}
}

// ReadAll returns the clipboard text.
func (m *Manager) ReadAll() (string, error) {
	return m.cb.ReadAll()
}

// WriteAll replaces the clipboard text, remembering the old content unless
// the clipboard still holds our own last write.
func (m *Manager) WriteAll(text string) error {
	current, err := m.cb.ReadAll()
	if err != nil {
		current = ""
	}
	if err := m.cb.WriteAll(text); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.previous == nil || current != m.written {
		m.previous = &current
	}
	m.written = text
	return nil
}

// CanRestore reports whether Restore has something to put back.
func (m *Manager) CanRestore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previous != nil
}

// Restore puts back the content replaced by the first of the consecutive
// writes.
func (m *Manager) Restore() error {
	m.mu.Lock()
	prev := m.previous
	m.mu.Unlock()
	if prev == nil {
		return errors.WithStack(ErrNothingToRestore)
	}
	if err := m.cb.WriteAll(*prev); err != nil {
		return err
	}
	m.mu.Lock()
	m.previous = nil
	m.written = ""
	m.mu.Unlock()
	return nil
}

var (
	_ Clipboard = System{}
	_ Clipboard = (*Manager)(nil)
)
