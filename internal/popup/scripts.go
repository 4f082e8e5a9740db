package popup

import (
	"context"
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
)

// PerformReplacements runs inside the page context. It takes the rule set
// and returns the engine's report.
func PerformReplacements(ctx context.Context, pc *browser.Context, args json.RawMessage) (any, error) {
	var set rules.Set
	if err := json.Unmarshal(args, &set); err != nil {
		return nil, errors.Errorf("decoding rules: %w", err)
	}
	return pc.Engine().ApplyWithReport(ctx, pc.Page, set), nil
}

// UndoReplacements runs inside the page context and reports whether a
// snapshot was restored.
func UndoReplacements(ctx context.Context, pc *browser.Context, _ json.RawMessage) (any, error) {
	return pc.Engine().Undo(ctx, pc.Page), nil
}

var (
	_ browser.Script = PerformReplacements
	_ browser.Script = UndoReplacements
)
