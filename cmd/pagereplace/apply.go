package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/diffutil"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

type applyOptions struct {
	write bool
	diff  bool
}

func newApplyCmd(e *env) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply <page|glob>...",
		Short: "Run Replace All with the saved rules on each page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pages, err := browser.ExpandPages(args)
			if err != nil {
				return err
			}

			b := browser.New(browser.WithEngineFactory(e.engineFactory()))
			c, st, err := e.openController(ctx, b)
			if err != nil {
				return err
			}
			defer closeStore(ctx, st)

			failed := 0
			for _, p := range pages {
				tab, err := b.Open(ctx, p)
				if err != nil {
					printStatus(cmd.OutOrStdout(), p, popup.Status{Message: "Error: " + err.Error(), IsError: true})
					failed++
					continue
				}
				if !applyTab(ctx, cmd.OutOrStdout(), b, c, tab, opts) {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d page(s) failed", failed, len(pages))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write modified pages back to their files")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "print a per-field diff of each change")
	return cmd
}

// applyTab runs Replace All on tab and reports whether it succeeded.
func applyTab(ctx context.Context, out io.Writer, b *browser.Browser, c *popup.Controller, tab *browser.Tab, opts *applyOptions) bool {
	label := tab.URL()
	if tab.Path() != "" {
		label = tab.Path()
	}

	if err := b.Activate(tab.ID()); err != nil {
		printStatus(out, label, popup.Status{Message: "Error: " + err.Error(), IsError: true})
		return false
	}
	s := c.ReplaceAll(ctx)
	printStatus(out, label, s)
	if s.IsError {
		return false
	}

	change, changed := c.LastChange()
	changed = changed && change.TabID == tab.ID()
	if opts.diff && changed {
		printDiff(out, change)
	}
	if opts.write && changed {
		if err := tab.Save(); err != nil {
			printStatus(out, label, popup.Status{Message: "Error: " + err.Error(), IsError: true})
			return false
		}
		fmt.Fprintln(out, dimColor.Sprint("  written"))
	}
	return true
}

func printDiff(out io.Writer, change popup.LastChange) {
	for _, fd := range diffutil.Fields(change.Report) {
		fmt.Fprintf(out, "  %s\n    %s\n", headColor.Sprint(fd.Label), diffutil.Inline(fd))
	}
}
