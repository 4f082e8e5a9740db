package ui

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/diffutil"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

const changePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Page Change Details</title>
    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; margin: 15px; background: #f8f9fa; color: #212529; }
        h1, h2 { border-bottom: 1px solid #dee2e6; padding-bottom: 8px; color: #0d6efd; }
        h3 { font-family: Menlo, Consolas, monospace; font-size: 0.95em; margin-bottom: 4px; }
        pre { background: #fff; border: 1px solid #dee2e6; border-radius: 4px; padding: 10px; white-space: pre-wrap; word-break: break-all; }
        pre.summary { background: #e9ecef; }
        del { background: #ffeef0; color: #dc3545; }
        ins { background: #e6ffed; color: #198754; text-decoration: none; }
        .meta { color: #6c757d; }
    </style>
</head>
<body>
    <h1>Page Change Details</h1>
    <p class="meta">%s</p>
    <h2>Summary</h2>
    <pre class="summary">%s</pre>
    <h2>Fields</h2>
%s
</body>
</html>
`

// RenderChangeHTML renders a change as a standalone HTML document.
func RenderChangeHTML(change popup.LastChange) string {
	var fields strings.Builder
	for _, fd := range diffutil.Fields(change.Report) {
		fmt.Fprintf(&fields, "    <h3>%s</h3>\n    <pre>", html.EscapeString(fd.Label))
		for _, seg := range fd.Segments {
			text := html.EscapeString(seg.Text)
			switch seg.Type {
			case diffmatchpatch.DiffDelete:
				fields.WriteString("<del>" + text + "</del>")
			case diffmatchpatch.DiffInsert:
				fields.WriteString("<ins>" + text + "</ins>")
			default:
				fields.WriteString(text)
			}
		}
		fields.WriteString("</pre>\n")
	}

	meta := fmt.Sprintf("%s at %s", change.URL, change.At.Format(time.DateTime))
	return fmt.Sprintf(changePageTemplate,
		html.EscapeString(meta),
		html.EscapeString(diffutil.Summary(change.Report)),
		fields.String(),
	)
}

// ShowChangeViewer writes the change to a temporary HTML file and opens it.
// The file is removed after a minute.
func ShowChangeViewer(ctx context.Context, change popup.LastChange) error {
	log := logging.FromContext(ctx)

	tmpFile, err := os.CreateTemp("", "pagediff-*.html")
	if err != nil {
		return errors.Errorf("could not create temporary file: %w", err)
	}
	if _, err := tmpFile.WriteString(RenderChangeHTML(change)); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return errors.Errorf("could not write change details: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return errors.WithStack(err)
	}

	absPath, err := filepath.Abs(tmpFile.Name())
	if err != nil {
		absPath = tmpFile.Name()
	}
	log.Info().Str("path", absPath).Msg("change details written")

	if err := OpenFileInDefaultApp(ctx, absPath); err != nil {
		return errors.Errorf("could not open change details, file saved at %s: %w", absPath, err)
	}

	time.AfterFunc(time.Minute, func() {
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", absPath).Msg("removing change details")
		}
	})
	return nil
}
