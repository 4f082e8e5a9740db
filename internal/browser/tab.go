package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/page"
)

// TabID identifies a tab for the lifetime of the browser.
type TabID int

// Tab is one open page. All script runs against the tab are serialized, the
// way a page's event loop runs one task at a time.
type Tab struct {
	id      TabID
	url     string
	path    string
	source  string
	browser *Browser

	mu      sync.Mutex
	context *Context
}

// ID returns the tab id.
func (t *Tab) ID() TabID { return t.id }

// URL returns the address of the loaded document.
func (t *Tab) URL() string { return t.url }

// Path returns the backing file, or "" for in-memory tabs.
func (t *Tab) Path() string { return t.path }

// Title returns a short label for menus.
func (t *Tab) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.context != nil {
		if title := t.context.Page.Title(); title != "" {
			return title
		}
	}
	return t.url
}

// ContextID returns the id of the current page context.
func (t *Tab) ContextID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context.ID
}

// HTML renders the current document.
func (t *Tab) HTML() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context.Page.HTML()
}

// Save writes the current document back to its file.
func (t *Tab) Save() error {
	if t.path == "" {
		return errors.WithDetails(ErrNotFileBacked, "url", t.url)
	}
	html, err := t.HTML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.path, []byte(html), 0o644); err != nil {
		return errors.Errorf("writing %s: %w", t.path, err)
	}
	return nil
}

// CopyHTML places the rendered document on the clipboard.
func (t *Tab) CopyHTML() error {
	html, err := t.HTML()
	if err != nil {
		return err
	}
	return t.browser.clipboard.WriteAll(html)
}

func (t *Tab) run(ctx context.Context, fn Script, args json.RawMessage) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, t.context, args)
}

// load parses the document into a new page context. The previous context,
// its engine and undo history included, is dropped.
func (t *Tab) load(ctx context.Context) error {
	var p *page.Page
	switch {
	case t.path != "":
		data, err := os.ReadFile(t.path)
		if err != nil {
			return errors.Errorf("reading %s: %w", t.path, err)
		}
		p, err = page.Parse(bytes.NewReader(data), t.url)
		if err != nil {
			return err
		}
	case t.source != "":
		var err error
		p, err = page.ParseString(t.source, t.url)
		if err != nil {
			return err
		}
	default:
		p = page.Blank(t.url)
	}

	pc := &Context{ID: uuid.New(), Page: p, newEngine: t.browser.newEngine}

	t.mu.Lock()
	t.context = pc
	t.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Str("url", t.url).
		Str("context_id", pc.ID.String()).
		Msg("page context created")
	return nil
}
