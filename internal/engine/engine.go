// Package engine applies find/replace rule sets to the editable fields of a
// page and keeps the undo history for that page.
package engine

import (
	"context"
	"time"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/page"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

// DefaultMatchTimeout bounds a single regex evaluation.
const DefaultMatchTimeout = time.Second

// Change describes one field rewritten by an apply.
type Change struct {
	Index             int    `json:"index"`
	ID                string `json:"id,omitempty"`
	Tag               string `json:"tag"`
	IsContentEditable bool   `json:"isContentEditable"`
	Before            string `json:"before"`
	After             string `json:"after"`
}

// Report is the outcome of one apply.
type Report struct {
	Count   int      `json:"count"`
	Changes []Change `json:"changes,omitempty"`
}

// Engine owns the undo history of one page context. It is not safe for
// concurrent use; callers serialize operations per page.
type Engine struct {
	history  *History
	patterns *patternCache
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	depth   int
	timeout time.Duration
}

// WithHistoryDepth bounds the number of undo frames kept.
func WithHistoryDepth(depth int) Option {
	return func(o *options) { o.depth = depth }
}

// WithMatchTimeout bounds each regex evaluation. Zero disables the bound.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New creates an engine with an empty history.
func New(opts ...Option) *Engine {
	o := options{depth: 1, timeout: DefaultMatchTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		history:  NewHistory(o.depth),
		patterns: newPatternCache(o.timeout),
	}
}

// CanUndo reports whether a frame is available.
func (e *Engine) CanUndo() bool { return e.history.Len() > 0 }

// Apply runs set against every editable field of p and returns the number of
// matches replaced.
func (e *Engine) Apply(ctx context.Context, p *page.Page, set rules.Set) int {
	return e.ApplyWithReport(ctx, p, set).Count
}

// ApplyWithReport is Apply that also returns the rewritten fields.
func (e *Engine) ApplyWithReport(ctx context.Context, p *page.Page, set rules.Set) Report {
	log := logging.FromContext(ctx)

	var report Report
	targets := p.Targets()
	snapshot := make(Snapshot, 0, len(targets))

	for _, target := range targets {
		isContentEditable := target.IsContentEditable()
		original := target.Text()
		snapshot = append(snapshot, Record{
			Index:             target.Index,
			Original:          original,
			IsContentEditable: isContentEditable,
		})

		text := original
		for i, rule := range set {
			var n int
			text, n = e.applyRule(ctx, text, rule, i)
			report.Count += n
		}

		if text == original {
			continue
		}
		write(target, text, isContentEditable)
		report.Changes = append(report.Changes, Change{
			Index:             target.Index,
			ID:                target.ID(),
			Tag:               target.Tag(),
			IsContentEditable: isContentEditable,
			Before:            original,
			After:             text,
		})
	}

	if report.Count > 0 {
		e.history.Push(snapshot)
	}

	log.Debug().
		Int("targets", len(targets)).
		Int("rules", len(set)).
		Int("replacements", report.Count).
		Int("history", e.history.Len()).
		Int("history_depth", e.history.Depth()).
		Msg("apply finished")

	return report
}

// applyRule runs one rule over text. A pattern that fails to compile or to
// evaluate leaves text unchanged.
func (e *Engine) applyRule(ctx context.Context, text string, rule rules.Rule, ruleIndex int) (string, int) {
	log := logging.FromContext(ctx)

	source := rule.Find
	if !rule.UseRegex {
		source = escapeLiteral(rule.Find)
	}
	re, err := e.patterns.compile(source, rule.CaseSensitive)
	if err != nil {
		log.Debug().Err(err).Int("rule", ruleIndex).Str("find", rule.Find).Msg("skipping rule with invalid pattern")
		return text, 0
	}

	found, err := countMatches(re, text)
	if err != nil {
		log.Debug().Err(err).Int("rule", ruleIndex).Msg("skipping rule, match failed")
		return text, 0
	}
	if found == 0 {
		return text, 0
	}

	if rule.Replace != "" && rule.Find != rule.Replace {
		already, err := e.countLiteral(rule.Replace, rule.CaseSensitive, text)
		if err == nil && already >= found {
			log.Debug().Int("rule", ruleIndex).Int("found", found).Int("already", already).Msg("replacement already present, skipping rule")
			return text, 0
		}
	}

	replaced, err := replaceAll(re, text, rule.Replace)
	if err != nil {
		log.Debug().Err(err).Int("rule", ruleIndex).Msg("skipping rule, replace failed")
		return text, 0
	}
	return replaced, found
}

func (e *Engine) countLiteral(s string, caseSensitive bool, text string) (int, error) {
	re, err := e.patterns.compile(escapeLiteral(s), caseSensitive)
	if err != nil {
		return 0, err
	}
	return countMatches(re, text)
}

// Undo restores the newest snapshot by index against a fresh query of p.
// Records whose index no longer resolves are skipped. It returns false only
// when there is nothing to undo.
func (e *Engine) Undo(ctx context.Context, p *page.Page) bool {
	log := logging.FromContext(ctx)

	snapshot, ok := e.history.Pop()
	if !ok {
		log.Debug().Msg("nothing to undo")
		return false
	}

	targets := p.Targets()
	restored := 0
	for _, rec := range snapshot {
		if rec.Index < 0 || rec.Index >= len(targets) {
			continue
		}
		write(targets[rec.Index], rec.Original, rec.IsContentEditable)
		restored++
	}

	log.Debug().
		Int("records", len(snapshot)).
		Int("restored", restored).
		Msg("undo finished")
	return true
}

// write stores text on target. Plain-value fields get an input event so host
// page scripts see the edit; content-editable regions do not.
func write(target *page.Target, text string, isContentEditable bool) {
	if isContentEditable {
		target.SetInnerHTML(text)
		return
	}
	target.SetValue(text)
	target.DispatchEvent(page.EventInput)
}
