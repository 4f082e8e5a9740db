package browser_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

const form = `<html><head><title>Form</title></head><body><input id="a" value="foo bar"></body></html>`

func applyScript(ctx context.Context, pc *browser.Context, args json.RawMessage) (any, error) {
	var set rules.Set
	if err := json.Unmarshal(args, &set); err != nil {
		return nil, err
	}
	return pc.Engine().Apply(ctx, pc.Page, set), nil
}

func undoScript(ctx context.Context, pc *browser.Context, _ json.RawMessage) (any, error) {
	return pc.Engine().Undo(ctx, pc.Page), nil
}

func writePage(t *testing.T, dir, name, html string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
	return path
}

func TestActiveTab_NoneOpen(t *testing.T) {
	b := browser.New()
	_, err := b.ActiveTab()
	assert.True(t, errors.Is(err, browser.ErrNoActiveTab))
}

func TestOpen_ActivatesNewestTab(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	first, err := b.OpenHTML(ctx, "memory://one", form)
	require.NoError(t, err)
	second, err := b.OpenHTML(ctx, "memory://two", form)
	require.NoError(t, err)

	active, err := b.ActiveTab()
	require.NoError(t, err)
	assert.Equal(t, second.ID(), active.ID())

	require.NoError(t, b.Activate(first.ID()))
	active, err = b.ActiveTab()
	require.NoError(t, err)
	assert.Equal(t, first.ID(), active.ID())
	assert.Len(t, b.Tabs(), 2)
	assert.Equal(t, "Form", first.Title())
}

func TestClose_ActiveTabLeavesNoneActive(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	tab, err := b.OpenHTML(ctx, "memory://one", form)
	require.NoError(t, err)
	require.NoError(t, b.Close(tab.ID()))

	_, err = b.ActiveTab()
	assert.True(t, errors.Is(err, browser.ErrNoActiveTab))
	assert.True(t, errors.Is(b.Close(tab.ID()), browser.ErrTabNotFound))
}

func TestExecuteScript_RoundTripsJSON(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	tab, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)

	set := rules.Set{{Find: "foo", Replace: "baz"}}
	raw, err := b.ExecuteScript(ctx, tab.ID(), applyScript, set)
	require.NoError(t, err)
	assert.JSONEq(t, "1", string(raw))

	raw, err = b.ExecuteScript(ctx, tab.ID(), undoScript, nil)
	require.NoError(t, err)
	assert.JSONEq(t, "true", string(raw))

	html, err := tab.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `value="foo bar"`)
}

func TestExecuteScript_RestrictedPagesRejectInjection(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	for _, u := range []string{"about:blank", "chrome://settings", "chrome-extension://abc/popup.html", "edge://flags", "view-source:http://x", "devtools://devtools"} {
		tab, err := b.Open(ctx, u)
		require.NoError(t, err, u)
		_, err = b.ExecuteScript(ctx, tab.ID(), undoScript, nil)
		assert.True(t, errors.Is(err, browser.ErrInjectionRejected), u)
	}
}

func TestExecuteScript_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := browser.New()
	tab, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)
	cancel()

	ran := false
	_, err = b.ExecuteScript(ctx, tab.ID(), func(context.Context, *browser.Context, json.RawMessage) (any, error) {
		ran = true
		return nil, nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestExecuteScript_ScriptErrorIsWrapped(t *testing.T) {
	ctx := context.Background()
	b := browser.New()
	tab, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)

	boom := errors.Base("boom")
	_, err = b.ExecuteScript(ctx, tab.ID(), func(context.Context, *browser.Context, json.RawMessage) (any, error) {
		return nil, boom
	}, nil)
	assert.True(t, errors.Is(err, boom))
}

func TestReload_DiscardsHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writePage(t, dir, "form.html", form)

	b := browser.New()
	tab, err := b.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(path), tab.URL())
	before := tab.ContextID()

	_, err = b.ExecuteScript(ctx, tab.ID(), applyScript, rules.Set{{Find: "foo", Replace: "baz"}})
	require.NoError(t, err)

	require.NoError(t, b.Reload(ctx, tab.ID()))
	assert.NotEqual(t, before, tab.ContextID())

	raw, err := b.ExecuteScript(ctx, tab.ID(), undoScript, nil)
	require.NoError(t, err)
	assert.JSONEq(t, "false", string(raw))
}

func TestEngineFactory_IsUsedPerContext(t *testing.T) {
	ctx := context.Background()
	built := 0
	b := browser.New(browser.WithEngineFactory(func() *engine.Engine {
		built++
		return engine.New(engine.WithHistoryDepth(3))
	}))
	tab, err := b.OpenHTML(ctx, "memory://form", form)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = b.ExecuteScript(ctx, tab.ID(), undoScript, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, built)

	require.NoError(t, b.Reload(ctx, tab.ID()))
	_, err = b.ExecuteScript(ctx, tab.ID(), undoScript, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, built)
}

func TestSave_WritesDocumentBack(t *testing.T) {
	ctx := context.Background()
	path := writePage(t, t.TempDir(), "form.html", form)

	b := browser.New()
	tab, err := b.Open(ctx, path)
	require.NoError(t, err)
	_, err = b.ExecuteScript(ctx, tab.ID(), applyScript, rules.Set{{Find: "foo", Replace: "baz"}})
	require.NoError(t, err)
	require.NoError(t, tab.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `value="baz bar"`)

	mem, err := b.OpenHTML(ctx, "memory://x", form)
	require.NoError(t, err)
	assert.True(t, errors.Is(mem.Save(), browser.ErrNotFileBacked))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := browser.New().Open(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestExpandPages(t *testing.T) {
	dir := t.TempDir()
	a := writePage(t, dir, "a.html", form)
	b := writePage(t, dir, "sub/b.html", form)
	writePage(t, dir, "sub/notes.txt", "x")

	got, err := browser.ExpandPages([]string{filepath.Join(dir, "**", "*.html"), "about:blank"})
	require.NoError(t, err)
	sort.Strings(got[:2])
	assert.Equal(t, []string{a, b, "about:blank"}, got)

	_, err = browser.ExpandPages([]string{filepath.Join(dir, "*.xml")})
	assert.Error(t, err)
}

func TestRestricted(t *testing.T) {
	assert.True(t, browser.Restricted("CHROME://newtab"))
	assert.False(t, browser.Restricted("file:///tmp/a.html"))
	assert.False(t, browser.Restricted("https://example.com"))
}

type fakeClipboard struct{ text string }

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, nil }

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return nil
}

func TestClipboardTabs(t *testing.T) {
	ctx := context.Background()
	cb := &fakeClipboard{text: form}
	b := browser.New(browser.WithClipboard(cb))

	tab, err := b.OpenClipboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, browser.ClipboardURL, tab.URL())

	_, err = b.ExecuteScript(ctx, tab.ID(), applyScript, rules.Set{{Find: "bar", Replace: "qux"}})
	require.NoError(t, err)
	require.NoError(t, tab.CopyHTML())
	assert.Contains(t, cb.text, `value="foo qux"`)
}
