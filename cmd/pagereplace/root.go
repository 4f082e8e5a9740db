package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/config"
	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
	"github.com/TanaroSch/page-regex-replace/internal/store"
)

// env is shared by the subcommands once the root pre-run has loaded config.
type env struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd(version string) *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "pagereplace",
		Short:         "Find and replace text in the editable fields of HTML pages",
		Long:          "Applies an ordered list of find/replace pairs to every text input, textarea and content-editable region of a page, with one-step undo.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTray(cmd.Context(), e.cfg, version)
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "config.json", "path to config.json")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override log_level from config (trace, debug, info, warn, error)")

	root.AddCommand(
		newTrayCmd(e, version),
		newApplyCmd(e),
		newSessionCmd(e),
		newRulesCmd(e),
	)
	return root
}

func (e *env) load(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	level := cfg.LogLevel
	if e.logLevel != "" {
		level = e.logLevel
	}
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	cmd.SetContext(logging.WithContext(ctx, logger))
	return nil
}

// engineFactory builds engines from the loaded settings.
func (e *env) engineFactory() browser.EngineFactory {
	return func() *engine.Engine {
		return engine.New(
			engine.WithHistoryDepth(e.cfg.HistoryDepth),
			engine.WithMatchTimeout(e.cfg.MatchTimeout()),
		)
	}
}

// openController opens the rule store and returns a loaded controller for b.
// The caller closes the store.
func (e *env) openController(ctx context.Context, b *browser.Browser) (*popup.Controller, *store.Store, error) {
	st, err := store.Open(ctx, e.cfg.DatabaseFile())
	if err != nil {
		return nil, nil, err
	}
	c := popup.New(b, store.NewRuleRepository(st), popup.WithSecrets(e.cfg.GetResolvedSecrets()))
	if err := c.Load(ctx); err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return c, st, nil
}

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
	headColor = color.New(color.FgCyan, color.Bold)
)

func printStatus(out io.Writer, prefix string, s popup.Status) {
	c := okColor
	if s.IsError {
		c = errColor
	}
	if prefix != "" {
		fmt.Fprint(out, dimColor.Sprint(prefix+": "))
	}
	fmt.Fprintln(out, c.Sprint(s.Message))
}

func closeStore(ctx context.Context, st *store.Store) {
	if err := st.Close(); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("closing store")
	}
}

