package app

import (
	"os"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/config"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/ui"
)

var getenv = os.Getenv

func (a *Application) onReplaceAll() {
	a.controller.ReplaceAll(a.ctx)
	a.refresh()
}

func (a *Application) onUndo() {
	a.controller.Undo(a.ctx)
	a.refresh()
}

func (a *Application) onSelectTab(id browser.TabID) {
	if err := a.browser.Activate(id); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Tabs", err.Error())
	}
	a.refresh()
}

func (a *Application) activeTab() (*browser.Tab, bool) {
	t, err := a.browser.ActiveTab()
	if err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, AppName, "Error: "+err.Error())
		return nil, false
	}
	return t, true
}

func (a *Application) onOpenClipboardPage() {
	if _, err := a.browser.OpenClipboard(a.ctx); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Open Clipboard HTML", err.Error())
		return
	}
	a.refresh()
}

func (a *Application) onReloadPage() {
	t, ok := a.activeTab()
	if !ok {
		return
	}
	if err := a.browser.Reload(a.ctx, t.ID()); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Reload Failed", err.Error())
		return
	}
	a.notifier.ShowNotification(AppName, "Page reloaded; undo history cleared")
	a.refresh()
}

func (a *Application) onSavePage() {
	t, ok := a.activeTab()
	if !ok {
		return
	}
	if err := t.Save(); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Save Failed", err.Error())
		return
	}
	a.notifier.ShowNotification(AppName, "Saved "+t.Path())
}

func (a *Application) onCopyPageHTML() {
	t, ok := a.activeTab()
	if !ok {
		return
	}
	if err := t.CopyHTML(); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Copy Failed", err.Error())
		return
	}
	a.notifier.ShowNotification(AppName, "Page HTML copied to the clipboard")
}

func (a *Application) onRestoreClipboard() {
	if err := a.clipboard.Restore(); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelInfo, "Restore Clipboard", err.Error())
		return
	}
	a.notifier.ShowNotification(AppName, "Previous clipboard content restored")
}

func (a *Application) onViewLastChange() {
	change, ok := a.controller.LastChange()
	if !ok {
		a.notifier.ShowAdminNotification(ui.LevelInfo, "View Changes", "No changes recorded from the last operation.")
		a.refresh()
		return
	}
	if err := ui.ShowChangeViewer(a.ctx, change); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Diff View Error", err.Error())
	}
}

func (a *Application) onOpenConfigFile() {
	path := a.config().GetConfigPath()
	if err := ui.OpenFileInDefaultApp(a.ctx, path); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Open Config Failed", err.Error())
	}
}

// onReloadConfig re-reads config and secrets and re-registers hotkeys. Open
// tabs keep their page contexts; new contexts pick up the new engine
// settings.
func (a *Application) onReloadConfig() {
	log := logging.FromContext(a.ctx)
	path := a.config().GetConfigPath()

	next, err := config.Load(a.ctx, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("reloading configuration")
		a.notifier.ShowAdminNotification(ui.LevelError, "Configuration Error", err.Error())
		return
	}

	a.mu.Lock()
	a.cfg = next
	a.mu.Unlock()

	a.controller.SetSecrets(next.GetResolvedSecrets())
	a.notifier.SetEnabled(next.UseNotifications)
	a.hotkeys.SetBindings(a.bindings(next)...)
	if err := a.hotkeys.RegisterAll(); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Hotkey Registration Issue", err.Error())
	}
	a.notifier.ShowAdminNotification(ui.LevelInfo, "Configuration Reloaded", "Settings, secrets and hotkeys updated.")
	a.refresh()
}

func (a *Application) onQuit() {
	logging.FromContext(a.ctx).Info().Msg("quitting")
	if err := a.Close(); err != nil {
		logging.FromContext(a.ctx).Warn().Err(err).Msg("closing store")
	}
}
