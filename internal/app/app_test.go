package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
)

func TestOpenPages_CollectsFailures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	good := filepath.Join(dir, "a.html")
	require.NoError(t, os.WriteFile(good, []byte(`<input value="x">`), 0o644))

	b := browser.New()
	err := openPages(ctx, b, []string{good, filepath.Join(dir, "missing.html"), "about:blank"})
	assert.Error(t, err)
	assert.Len(t, b.Tabs(), 2)
}

func TestOpenPages_Globs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"a.html", "b.html"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`<textarea>x</textarea>`), 0o644))
	}
	b := browser.New()
	require.NoError(t, openPages(ctx, b, []string{filepath.Join(dir, "*.html")}))
	assert.Len(t, b.Tabs(), 2)
}
