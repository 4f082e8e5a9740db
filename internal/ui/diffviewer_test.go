package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

func TestRenderChangeHTML(t *testing.T) {
	change := popup.LastChange{
		URL: "file:///tmp/form.html",
		At:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Report: engine.Report{Count: 1, Changes: []engine.Change{
			{Index: 0, ID: "bio", Tag: "div", IsContentEditable: true, Before: "<b>foo</b> bar", After: "<b>baz</b> bar"},
		}},
	}
	out := RenderChangeHTML(change)

	assert.Contains(t, out, "file:///tmp/form.html at 2024-05-01 12:00:00")
	assert.Contains(t, out, "#1 &lt;div id=&#34;bio&#34; contenteditable&gt;")
	assert.Contains(t, out, "<del>")
	assert.Contains(t, out, "<ins>")
	assert.NotContains(t, out, "<b>foo</b>")
	assert.Contains(t, out, "Replacements      : 1")
}
