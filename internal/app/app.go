// Package app wires the popup controller to the tray, hotkeys and
// notifications.
package app

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/clipboard"
	"github.com/TanaroSch/page-regex-replace/internal/config"
	"github.com/TanaroSch/page-regex-replace/internal/engine"
	"github.com/TanaroSch/page-regex-replace/internal/hotkey"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
	"github.com/TanaroSch/page-regex-replace/internal/resources"
	"github.com/TanaroSch/page-regex-replace/internal/store"
	"github.com/TanaroSch/page-regex-replace/internal/ui"
)

// AppName is shown in dialogs and notifications.
const AppName = "Page Regex Replace"

// Application is the tray front end.
type Application struct {
	ctx     context.Context
	cancel  context.CancelFunc
	version string

	mu  sync.RWMutex
	cfg *config.Config

	browser    *browser.Browser
	clipboard  *clipboard.Manager
	store      *store.Store
	controller *popup.Controller
	notifier   *ui.NotificationManager
	hotkeys    *hotkey.Manager
	tray       *ui.SystrayManager
}

// New opens the rule store and builds every component. Close releases them.
func New(ctx context.Context, cfg *config.Config, version string) (*Application, error) {
	ctx, cancel := context.WithCancel(logging.WithComponent(ctx, "app"))
	a := &Application{ctx: ctx, cancel: cancel, version: version, cfg: cfg}

	icon, err := resources.GetIcon()
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to load embedded icon")
	}

	st, err := store.Open(ctx, cfg.DatabaseFile())
	if err != nil {
		cancel()
		return nil, err
	}
	a.store = st

	a.clipboard = clipboard.NewManager(nil)
	a.browser = browser.New(
		browser.WithEngineFactory(a.newEngine),
		browser.WithClipboard(a.clipboard),
	)
	a.notifier = ui.NewNotificationManager(ctx, cfg.UseNotifications, AppName, icon)
	a.controller = popup.New(a.browser, store.NewRuleRepository(st),
		popup.WithNotifier(a.notifier),
		popup.WithSecrets(cfg.GetResolvedSecrets()),
	)
	if err := a.controller.Load(ctx); err != nil {
		_ = st.Close()
		cancel()
		return nil, err
	}

	a.hotkeys = hotkey.NewManager(ctx, a.bindings(cfg)...)
	a.tray = ui.NewSystrayManager(ctx, version, icon, ui.Actions{
		ReplaceAll:        a.onReplaceAll,
		Undo:              a.onUndo,
		SelectTab:         a.onSelectTab,
		OpenClipboardPage: a.onOpenClipboardPage,
		ReloadPage:        a.onReloadPage,
		CopyPageHTML:      a.onCopyPageHTML,
		RestoreClipboard:  a.onRestoreClipboard,
		SavePage:          a.onSavePage,
		AddRule:           a.onAddRule,
		RemoveRule:        a.onRemoveRule,
		ViewLastChange:    a.onViewLastChange,
		AddSecret:         a.onAddSecret,
		ListSecrets:       a.onListSecrets,
		RemoveSecret:      a.onRemoveSecret,
		OpenConfig:        a.onOpenConfigFile,
		ReloadConfig:      a.onReloadConfig,
		Quit:              a.onQuit,
	})
	return a, nil
}

func (a *Application) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// newEngine builds the engine of each new page context from the current
// settings.
func (a *Application) newEngine() *engine.Engine {
	cfg := a.config()
	return engine.New(
		engine.WithHistoryDepth(cfg.HistoryDepth),
		engine.WithMatchTimeout(cfg.MatchTimeout()),
	)
}

func (a *Application) bindings(cfg *config.Config) []hotkey.Binding {
	return []hotkey.Binding{
		{Name: "Replace All", Combo: cfg.ApplyHotkey, Action: a.onReplaceAll},
		{Name: "Undo", Combo: cfg.UndoHotkey, Action: a.onUndo},
	}
}

// Run opens the configured pages, registers hotkeys and blocks in the tray
// loop.
func (a *Application) Run() {
	log := logging.FromContext(a.ctx)
	cfg := a.config()

	if err := openPages(a.ctx, a.browser, cfg.Pages); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Pages", err.Error())
	}

	ds := hotkey.DetectDisplayServer(a.ctx)
	if hotkey.SupportsGlobalHotkeys(ds, getenv) {
		if err := a.hotkeys.RegisterAll(); err != nil {
			log.Warn().Err(err).Msg("failed to register hotkeys")
			a.notifier.ShowAdminNotification(ui.LevelWarn, "Hotkey Registration Issue", err.Error())
		}
	} else {
		log.Warn().Str("display_server", ds.String()).Msg("global hotkeys unavailable, use the tray menu")
	}

	if cfg.WatchPages {
		go func() {
			if err := a.browser.Watch(a.ctx, func(t *browser.Tab) {
				a.notifier.ShowNotification(AppName, fmt.Sprintf("Reloaded %s; undo history cleared", t.Title()))
				a.refresh()
			}); err != nil {
				log.Warn().Err(err).Msg("page watcher stopped")
			}
		}()
	}

	a.refresh()
	a.tray.Run()
}

// Close releases the store and stops background work.
func (a *Application) Close() error {
	a.cancel()
	a.hotkeys.UnregisterAll()
	return a.store.Close()
}

// openPages opens every configured page. Failures are collected so one bad
// entry does not hide the rest.
func openPages(ctx context.Context, b *browser.Browser, pages []string) error {
	expanded, err := browser.ExpandPages(pages)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range expanded {
		if _, err := b.Open(ctx, p); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("page", p).Msg("failed to open page")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// refresh pushes tabs, rules and last-change state into the tray.
func (a *Application) refresh() {
	var active browser.TabID
	if t, err := a.browser.ActiveTab(); err == nil {
		active = t.ID()
	}
	var entries []ui.TabEntry
	for _, t := range a.browser.Tabs() {
		entries = append(entries, ui.TabEntry{ID: t.ID(), Title: t.Title(), Active: t.ID() == active})
	}
	a.tray.SetTabs(entries)
	a.tray.SetRules(a.controller.Pairs())
	_, ok := a.controller.LastChange()
	a.tray.SetLastChangeAvailable(ok)
}
