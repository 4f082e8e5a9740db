// Package diffutil turns an engine report into per-field word diffs.
package diffutil

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/TanaroSch/page-regex-replace/internal/engine"
)

// FieldDiff is the diff of one rewritten field.
type FieldDiff struct {
	Label    string
	Segments []diffmatchpatch.Diff
	Inserted int // runes
	Deleted  int // runes
}

// Label names a changed field the way the user can find it on the page.
func Label(c engine.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d <%s", c.Index+1, c.Tag)
	if c.ID != "" {
		fmt.Fprintf(&b, " id=%q", c.ID)
	}
	if c.IsContentEditable {
		b.WriteString(" contenteditable")
	}
	b.WriteString(">")
	return b.String()
}

// WordDiff diffs before and after, merging character edits inside a word so
// that a replaced word shows up as one deletion and one insertion.
func WordDiff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 5 * time.Second

	var out, pending []diffmatchpatch.Diff
	for _, d := range dmp.DiffMain(before, after, true) {
		pending = append(pending, d)
		if d.Type == diffmatchpatch.DiffEqual && strings.ContainsAny(d.Text, " \t\r\n") {
			out = append(out, coalesce(pending)...)
			pending = nil
		}
	}
	out = append(out, coalesce(pending)...)
	return dmp.DiffCleanupSemantic(out)
}

// coalesce regroups a run of diffs into at most one deletion followed by one
// insertion, keeping a trailing equal segment that ends the word.
func coalesce(run []diffmatchpatch.Diff) []diffmatchpatch.Diff {
	if len(run) == 0 {
		return nil
	}
	var tail *diffmatchpatch.Diff
	if last := run[len(run)-1]; last.Type == diffmatchpatch.DiffEqual {
		tail = &last
		run = run[:len(run)-1]
	}

	changed := false
	for _, d := range run {
		if d.Type != diffmatchpatch.DiffEqual {
			changed = true
			break
		}
	}

	var out []diffmatchpatch.Diff
	if !changed {
		out = append(out, run...)
	} else {
		var del, ins strings.Builder
		for _, d := range run {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				del.WriteString(d.Text)
				ins.WriteString(d.Text)
			case diffmatchpatch.DiffDelete:
				del.WriteString(d.Text)
			case diffmatchpatch.DiffInsert:
				ins.WriteString(d.Text)
			}
		}
		if del.Len() > 0 {
			out = append(out, diffmatchpatch.Diff{Type: diffmatchpatch.DiffDelete, Text: del.String()})
		}
		if ins.Len() > 0 {
			out = append(out, diffmatchpatch.Diff{Type: diffmatchpatch.DiffInsert, Text: ins.String()})
		}
	}
	if tail != nil {
		out = append(out, *tail)
	}
	return out
}

// Fields diffs every change of a report.
func Fields(report engine.Report) []FieldDiff {
	fields := make([]FieldDiff, 0, len(report.Changes))
	for _, c := range report.Changes {
		fd := FieldDiff{Label: Label(c), Segments: WordDiff(c.Before, c.After)}
		for _, d := range fd.Segments {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fd.Inserted += utf8.RuneCountInString(d.Text)
			case diffmatchpatch.DiffDelete:
				fd.Deleted += utf8.RuneCountInString(d.Text)
			}
		}
		fields = append(fields, fd)
	}
	return fields
}

// Summary is a short text description of a report.
func Summary(report engine.Report) string {
	inserted, deleted := 0, 0
	for _, f := range Fields(report) {
		inserted += f.Inserted
		deleted += f.Deleted
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Change Summary:\n")
	fmt.Fprintf(&buf, "- Replacements      : %d\n", report.Count)
	fmt.Fprintf(&buf, "- Fields Changed    : %d\n", len(report.Changes))
	fmt.Fprintf(&buf, "- Characters Added  : %d\n", inserted)
	fmt.Fprintf(&buf, "- Characters Removed: %d\n", deleted)
	return buf.String()
}

// Inline renders a field diff as one line, deletions as [-x-] and insertions
// as {+y+}.
func Inline(fd FieldDiff) string {
	var b strings.Builder
	for _, d := range fd.Segments {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		}
	}
	return b.String()
}
