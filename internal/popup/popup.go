// Package popup is the rule editor and action surface shared by the tray
// and the command line.
package popup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

// Status messages shown after an action.
const (
	MsgUndoSuccessful = "Undo successful"
	MsgNothingToUndo  = "Nothing to undo"
	MsgNoPairs        = "Please enter at least one find/replace pair"
)

// ErrPairIndex is returned for a pair index outside the list.
var ErrPairIndex = errors.Base("pair index out of range")

// Status is the one-line result of an action.
type Status struct {
	Message string
	IsError bool
}

func (s Status) String() string { return s.Message }

func replacedStatus(n int) Status {
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	return Status{Message: fmt.Sprintf("Replaced %d occurrence%s", n, suffix)}
}

func errorStatus(err error) Status {
	return Status{Message: "Error: " + err.Error(), IsError: true}
}

// Host runs scripts in the active page.
type Host interface {
	ActiveTab() (*browser.Tab, error)
	Tab(id browser.TabID) (*browser.Tab, error)
	ExecuteScript(ctx context.Context, id browser.TabID, fn browser.Script, args any) (json.RawMessage, error)
}

// RuleStore persists the pair list.
type RuleStore interface {
	Load(ctx context.Context) (rules.Set, error)
	Save(ctx context.Context, set rules.Set) error
}

// Notifier is told about every status the controller produces.
type Notifier interface {
	Notify(status Status)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Status)

// Notify calls f.
func (f NotifierFunc) Notify(s Status) { f(s) }

// Pair is one numbered row of the editor.
type Pair struct {
	Number int
	rules.Rule
}

// LastChange is the outcome of the most recent successful Replace All.
// ContextID is the page context the change was made in.
type LastChange struct {
	TabID     browser.TabID
	ContextID uuid.UUID
	URL       string
	At        time.Time
	Report    engine.Report
}

// Controller holds the pair list and dispatches actions to the host.
type Controller struct {
	host     Host
	store    RuleStore
	notifier Notifier
	secrets  map[string]string

	mu    sync.Mutex
	pairs rules.Set
	last  *LastChange
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier reports statuses to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithSecrets sets the values substituted for {{name}} placeholders.
func WithSecrets(secrets map[string]string) Option {
	return func(c *Controller) { c.secrets = secrets }
}

// New creates a controller with one blank pair. Call Load to restore the
// saved list.
func New(host Host, store RuleStore, opts ...Option) *Controller {
	c := &Controller{host: host, store: store, pairs: rules.Set{{}}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSecrets replaces the placeholder values.
func (c *Controller) SetSecrets(secrets map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secrets = secrets
}

// Load restores the saved pairs. An empty store yields one blank pair.
func (c *Controller) Load(ctx context.Context) error {
	set, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(set) == 0 {
		c.pairs = rules.Set{{}}
	} else {
		c.pairs = set
	}
	logging.FromContext(ctx).Debug().Int("pairs", len(c.pairs)).Msg("pairs loaded")
	return nil
}

// Pairs returns the rows numbered from 1.
func (c *Controller) Pairs() []Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Pair, len(c.pairs))
	for i, r := range c.pairs {
		out[i] = Pair{Number: i + 1, Rule: r}
	}
	return out
}

// ValidPairs returns the rules with a non-empty find, in order.
func (c *Controller) ValidPairs() rules.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pairs.Valid()
}

// AddPair appends a row and saves.
func (c *Controller) AddPair(ctx context.Context, r rules.Rule) error {
	return c.edit(ctx, func(pairs rules.Set) (rules.Set, error) {
		return append(pairs, r), nil
	})
}

// UpdatePair replaces row i (zero based) and saves.
func (c *Controller) UpdatePair(ctx context.Context, i int, r rules.Rule) error {
	return c.edit(ctx, func(pairs rules.Set) (rules.Set, error) {
		if i < 0 || i >= len(pairs) {
			return nil, errors.WithDetails(ErrPairIndex, "index", i)
		}
		pairs[i] = r
		return pairs, nil
	})
}

// RemovePair deletes row i (zero based) and saves. The last remaining row is
// never removed; RemovePair then reports false.
func (c *Controller) RemovePair(ctx context.Context, i int) (bool, error) {
	removed := false
	err := c.edit(ctx, func(pairs rules.Set) (rules.Set, error) {
		if i < 0 || i >= len(pairs) {
			return nil, errors.WithDetails(ErrPairIndex, "index", i)
		}
		if len(pairs) == 1 {
			return pairs, nil
		}
		removed = true
		return append(pairs[:i], pairs[i+1:]...), nil
	})
	return removed, err
}

// SetPairs replaces the whole list and saves. An empty list becomes one
// blank row.
func (c *Controller) SetPairs(ctx context.Context, set rules.Set) error {
	return c.edit(ctx, func(rules.Set) (rules.Set, error) {
		if len(set) == 0 {
			return rules.Set{{}}, nil
		}
		return append(rules.Set(nil), set...), nil
	})
}

func (c *Controller) edit(ctx context.Context, fn func(rules.Set) (rules.Set, error)) error {
	c.mu.Lock()
	next, err := fn(append(rules.Set(nil), c.pairs...))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.pairs = next
	snapshot := append(rules.Set(nil), next...)
	c.mu.Unlock()

	if err := c.store.Save(ctx, snapshot); err != nil {
		return errors.Errorf("saving pairs: %w", err)
	}
	return nil
}

// ReplaceAll applies the valid pairs to the active tab.
func (c *Controller) ReplaceAll(ctx context.Context) Status {
	c.mu.Lock()
	set := c.pairs.Valid().ResolvePlaceholders(c.secrets)
	c.mu.Unlock()

	if len(set) == 0 {
		return c.report(ctx, Status{Message: MsgNoPairs, IsError: true})
	}

	tab, err := c.host.ActiveTab()
	if err != nil {
		return c.report(ctx, errorStatus(err))
	}
	raw, err := c.host.ExecuteScript(ctx, tab.ID(), PerformReplacements, set)
	if err != nil {
		return c.report(ctx, errorStatus(err))
	}
	var report engine.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return c.report(ctx, errorStatus(errors.Errorf("decoding result: %w", err)))
	}

	if report.Count > 0 {
		c.mu.Lock()
		c.last = &LastChange{TabID: tab.ID(), ContextID: tab.ContextID(), URL: tab.URL(), At: time.Now(), Report: report}
		c.mu.Unlock()
	}
	return c.report(ctx, replacedStatus(report.Count))
}

// Undo restores the active tab's last snapshot.
func (c *Controller) Undo(ctx context.Context) Status {
	tab, err := c.host.ActiveTab()
	if err != nil {
		return c.report(ctx, errorStatus(err))
	}
	raw, err := c.host.ExecuteScript(ctx, tab.ID(), UndoReplacements, nil)
	if err != nil {
		return c.report(ctx, errorStatus(err))
	}
	var restored bool
	if err := json.Unmarshal(raw, &restored); err != nil {
		return c.report(ctx, errorStatus(errors.Errorf("decoding result: %w", err)))
	}
	if !restored {
		return c.report(ctx, Status{Message: MsgNothingToUndo, IsError: true})
	}

	c.mu.Lock()
	if c.last != nil && c.last.TabID == tab.ID() {
		c.last = nil
	}
	c.mu.Unlock()
	return c.report(ctx, Status{Message: MsgUndoSuccessful})
}

// LastChange returns the most recent change that has not been undone. A
// change is forgotten once its tab is closed or reloaded.
func (c *Controller) LastChange() (LastChange, bool) {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil {
		return LastChange{}, false
	}

	if tab, err := c.host.Tab(last.TabID); err != nil || tab.ContextID() != last.ContextID {
		c.mu.Lock()
		if c.last == last {
			c.last = nil
		}
		c.mu.Unlock()
		return LastChange{}, false
	}
	return *last, true
}

func (c *Controller) report(ctx context.Context, s Status) Status {
	ev := logging.FromContext(ctx).Info()
	if s.IsError {
		ev = logging.FromContext(ctx).Warn()
	}
	ev.Str("status", s.Message).Msg("popup action finished")
	if c.notifier != nil {
		c.notifier.Notify(s)
	}
	return s
}
