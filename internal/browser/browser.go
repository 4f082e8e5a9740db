// Package browser hosts loaded pages as tabs and runs scripts inside their
// page contexts.
package browser

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/clipboard"
	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/page"
)

var (
	// ErrNoActiveTab is returned when no tab is focused.
	ErrNoActiveTab = errors.Base("no active tab")
	// ErrTabNotFound is returned for an unknown tab id.
	ErrTabNotFound = errors.Base("no tab with the given id")
	// ErrInjectionRejected is returned when a page refuses script injection.
	ErrInjectionRejected = errors.Base("cannot access contents of the page")
	// ErrNotFileBacked is returned when saving a tab that has no file.
	ErrNotFileBacked = errors.Base("tab is not backed by a file")
)

// BlankURL is the URL of an empty tab.
const BlankURL = "about:blank"

// ClipboardURL is the URL given to tabs opened from clipboard HTML.
const ClipboardURL = "memory://clipboard"

var restrictedSchemes = []string{
	"about:",
	"chrome:",
	"chrome-extension:",
	"devtools:",
	"edge:",
	"view-source:",
}

// Restricted reports whether pages at rawURL refuse script injection.
func Restricted(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, scheme := range restrictedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// Script runs inside a page context. args holds the JSON-encoded arguments.
type Script func(ctx context.Context, pc *Context, args json.RawMessage) (any, error)

// EngineFactory builds the engine for a new page context.
type EngineFactory func() *engine.Engine

// Context is the execution context of one page load. Reloading or navigating
// a tab replaces it, discarding everything attached to it.
type Context struct {
	ID   uuid.UUID
	Page *page.Page

	newEngine EngineFactory
	engine    *engine.Engine
}

// Engine returns the context's replacement engine, creating it on first use.
func (c *Context) Engine() *engine.Engine {
	if c.engine == nil {
		c.engine = c.newEngine()
	}
	return c.engine
}

// Browser owns the open tabs.
type Browser struct {
	mu     sync.RWMutex
	tabs   map[TabID]*Tab
	nextID TabID
	active TabID

	newEngine EngineFactory
	clipboard clipboard.Clipboard
}

// Option configures a Browser.
type Option func(*Browser)

// WithEngineFactory sets how page contexts build their engine.
func WithEngineFactory(f EngineFactory) Option {
	return func(b *Browser) { b.newEngine = f }
}

// WithClipboard sets the clipboard used for clipboard tabs.
func WithClipboard(cb clipboard.Clipboard) Option {
	return func(b *Browser) { b.clipboard = cb }
}

// New creates a browser with no tabs.
func New(opts ...Option) *Browser {
	b := &Browser{
		tabs:      make(map[TabID]*Tab),
		nextID:    1,
		newEngine: func() *engine.Engine { return engine.New() },
		clipboard: clipboard.System{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open loads rawURL in a new tab and activates it. rawURL may be a file path,
// a file:// URL or about:blank.
func (b *Browser) Open(ctx context.Context, rawURL string) (*Tab, error) {
	loc, err := resolve(rawURL)
	if err != nil {
		return nil, err
	}
	t := &Tab{url: loc.url, path: loc.path, browser: b}
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	b.add(ctx, t)
	return t, nil
}

// OpenHTML opens an in-memory document under the given URL.
func (b *Browser) OpenHTML(ctx context.Context, rawURL, html string) (*Tab, error) {
	t := &Tab{url: rawURL, browser: b, source: html}
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	b.add(ctx, t)
	return t, nil
}

// OpenClipboard opens the HTML currently on the clipboard.
func (b *Browser) OpenClipboard(ctx context.Context) (*Tab, error) {
	html, err := b.clipboard.ReadAll()
	if err != nil {
		return nil, err
	}
	return b.OpenHTML(ctx, ClipboardURL, html)
}

func (b *Browser) add(ctx context.Context, t *Tab) {
	b.mu.Lock()
	t.id = b.nextID
	b.nextID++
	b.tabs[t.id] = t
	b.active = t.id
	b.mu.Unlock()

	logging.FromContext(ctx).Info().Int("tab_id", int(t.id)).Str("url", t.url).Msg("tab opened")
}

// Close removes a tab. Closing the active tab leaves no tab active.
func (b *Browser) Close(id TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[id]; !ok {
		return errors.WithDetails(ErrTabNotFound, "tab", int(id))
	}
	delete(b.tabs, id)
	if b.active == id {
		b.active = 0
	}
	return nil
}

// Activate focuses a tab.
func (b *Browser) Activate(id TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[id]; !ok {
		return errors.WithDetails(ErrTabNotFound, "tab", int(id))
	}
	b.active = id
	return nil
}

// ActiveTab returns the focused tab.
func (b *Browser) ActiveTab() (*Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tabs[b.active]
	if !ok {
		return nil, errors.WithStack(ErrNoActiveTab)
	}
	return t, nil
}

// Tab looks a tab up by id.
func (b *Browser) Tab(id TabID) (*Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tabs[id]
	if !ok {
		return nil, errors.WithDetails(ErrTabNotFound, "tab", int(id))
	}
	return t, nil
}

// Tabs returns the open tabs ordered by id.
func (b *Browser) Tabs() []*Tab {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Tab, 0, len(b.tabs))
	for _, t := range b.tabs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Reload re-reads a tab's document into a fresh page context.
func (b *Browser) Reload(ctx context.Context, id TabID) error {
	t, err := b.Tab(id)
	if err != nil {
		return err
	}
	return t.load(ctx)
}

// ExecuteScript runs fn in the page context of tab id. args are marshalled
// to JSON before the call and the result is marshalled back. A script that
// has started always runs to completion.
func (b *Browser) ExecuteScript(ctx context.Context, id TabID, fn Script, args any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	t, err := b.Tab(id)
	if err != nil {
		return nil, err
	}
	if Restricted(t.URL()) {
		return nil, errors.WithDetails(ErrInjectionRejected, "url", t.URL())
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Errorf("marshalling script arguments: %w", err)
	}

	ctx = logging.WithTabID(ctx, int(id))
	result, err := t.run(ctx, fn, raw)
	if err != nil {
		return nil, errors.Errorf("script failed in tab %d: %w", id, err)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Errorf("marshalling script result: %w", err)
	}
	return out, nil
}

type location struct {
	url  string
	path string
}

func resolve(rawURL string) (location, error) {
	switch {
	case rawURL == "":
		return location{url: BlankURL}, nil
	case strings.HasPrefix(rawURL, "file://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return location{}, errors.Errorf("parsing %q: %w", rawURL, err)
		}
		return location{url: rawURL, path: filepath.FromSlash(u.Path)}, nil
	case Restricted(rawURL):
		return location{url: rawURL}, nil
	}

	abs, err := filepath.Abs(rawURL)
	if err != nil {
		return location{}, errors.Errorf("resolving %q: %w", rawURL, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return location{}, errors.Errorf("opening %q: %w", rawURL, err)
	}
	return location{url: "file://" + filepath.ToSlash(abs), path: abs}, nil
}
