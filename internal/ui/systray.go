// Package ui is the desktop surface of the tray application: the tray menu,
// notifications and the change viewer.
package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/TanaroSch/page-regex-replace/internal/browser"
	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

// systray cannot remove menu items, so tabs and rules get a fixed number of
// slots that are shown, retitled or hidden.
const (
	maxTabSlots  = 12
	maxRuleSlots = 20
)

// Actions are the callbacks behind the menu items. Nil entries are skipped.
type Actions struct {
	ReplaceAll        func()
	Undo              func()
	SelectTab         func(id browser.TabID)
	OpenClipboardPage func()
	ReloadPage        func()
	CopyPageHTML      func()
	RestoreClipboard  func()
	SavePage          func()
	AddRule           func()
	RemoveRule        func(index int)
	ViewLastChange    func()
	AddSecret         func()
	ListSecrets       func()
	RemoveSecret      func()
	OpenConfig        func()
	ReloadConfig      func()
	Quit              func()
}

// TabEntry is one row of the Tabs submenu.
type TabEntry struct {
	ID     browser.TabID
	Title  string
	Active bool
}

// SystrayManager owns the tray icon and menu.
type SystrayManager struct {
	ctx     context.Context
	version string
	icon    []byte
	actions Actions

	mu             sync.Mutex
	ready          bool
	tabs           []TabEntry
	pairs          []popup.Pair
	lastChange     bool
	tabSlots       []*systray.MenuItem
	ruleSlots      []*systray.MenuItem
	miViewLastDiff *systray.MenuItem
	miNoTabs       *systray.MenuItem
}

// NewSystrayManager creates the manager. Run shows the tray.
func NewSystrayManager(ctx context.Context, version string, icon []byte, actions Actions) *SystrayManager {
	return &SystrayManager{
		ctx:     logging.WithComponent(ctx, "systray"),
		version: version,
		icon:    icon,
		actions: actions,
	}
}

// Run shows the tray and blocks until Quit.
func (s *SystrayManager) Run() {
	systray.Run(s.onReady, s.onExit)
}

// Quit closes the tray.
func (s *SystrayManager) Quit() {
	systray.Quit()
}

// SetTabs updates the Tabs submenu.
func (s *SystrayManager) SetTabs(tabs []TabEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs = tabs
	if s.ready {
		s.renderTabs()
	}
}

// SetRules updates the Rules submenu.
func (s *SystrayManager) SetRules(pairs []popup.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = pairs
	if s.ready {
		s.renderRules()
	}
}

// SetLastChangeAvailable enables or disables View Last Change Details.
func (s *SystrayManager) SetLastChangeAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChange = ok
	if s.ready {
		s.renderLastChange()
	}
}

func (s *SystrayManager) onReady() {
	title := fmt.Sprintf("Page Regex Replace %s", s.version)
	systray.SetTitle(title)
	systray.SetTooltip(title)
	if len(s.icon) > 0 {
		systray.SetIcon(s.icon)
	}

	miVersion := systray.AddMenuItem("Version: "+s.version, "Page Regex Replace version")
	miVersion.Disable()
	systray.AddSeparator()

	s.onClick(systray.AddMenuItem("Replace All", "Apply the rules to the active tab"), s.actions.ReplaceAll)
	s.onClick(systray.AddMenuItem("Undo", "Restore the active tab's fields"), s.actions.Undo)
	systray.AddSeparator()

	miTabs := systray.AddMenuItem("Tabs", "Choose the active tab")
	miNoTabs := miTabs.AddSubMenuItem("(No open tabs)", "")
	miNoTabs.Disable()
	tabSlots := make([]*systray.MenuItem, maxTabSlots)
	for i := range tabSlots {
		tabSlots[i] = miTabs.AddSubMenuItemCheckbox("", "", false)
		tabSlots[i].Hide()
		go s.watchTabSlot(i, tabSlots[i])
	}
	s.onClick(miTabs.AddSubMenuItem("Open Clipboard HTML", "Open the HTML on the clipboard as a tab"), s.actions.OpenClipboardPage)
	s.onClick(miTabs.AddSubMenuItem("Reload Active Tab", "Re-read the page; discards undo history"), s.actions.ReloadPage)
	s.onClick(miTabs.AddSubMenuItem("Save Active Tab", "Write the page back to its file"), s.actions.SavePage)
	s.onClick(miTabs.AddSubMenuItem("Copy Page HTML", "Copy the active tab's HTML to the clipboard"), s.actions.CopyPageHTML)
	s.onClick(miTabs.AddSubMenuItem("Restore Previous Clipboard", "Put back what Copy Page HTML replaced"), s.actions.RestoreClipboard)

	miRules := systray.AddMenuItem("Rules", "Saved find/replace pairs; click one to remove it")
	ruleSlots := make([]*systray.MenuItem, maxRuleSlots)
	for i := range ruleSlots {
		ruleSlots[i] = miRules.AddSubMenuItem("", "Remove this pair")
		ruleSlots[i].Hide()
		idx := i
		s.onClick(ruleSlots[i], func() {
			if s.actions.RemoveRule != nil {
				s.actions.RemoveRule(idx)
			}
		})
	}
	s.onClick(miRules.AddSubMenuItem("Add Rule...", "Append a find/replace pair"), s.actions.AddRule)

	miSecrets := systray.AddMenuItem("Manage Secrets", "Values substituted for {{name}} placeholders")
	s.onClick(miSecrets.AddSubMenuItem("Add/Update Secret...", "Store a value in the OS keyring"), s.actions.AddSecret)
	s.onClick(miSecrets.AddSubMenuItem("List Secret Names", "Show names of stored secrets"), s.actions.ListSecrets)
	s.onClick(miSecrets.AddSubMenuItem("Remove Secret...", "Delete a stored secret"), s.actions.RemoveSecret)
	systray.AddSeparator()

	miViewLastDiff := systray.AddMenuItem("View Last Change Details", "Show what the last Replace All changed")
	s.onClick(miViewLastDiff, s.actions.ViewLastChange)
	s.onClick(systray.AddMenuItem("Open Config File", "Open config.json in the default editor"), s.actions.OpenConfig)
	s.onClick(systray.AddMenuItem("Reload Configuration", "Reload config, secrets and hotkeys"), s.actions.ReloadConfig)
	systray.AddSeparator()
	miQuit := systray.AddMenuItem("Quit", "Exit the application")

	go func() {
		<-miQuit.ClickedCh
		logging.FromContext(s.ctx).Info().Msg("quit clicked")
		if s.actions.Quit != nil {
			s.actions.Quit()
		}
		systray.Quit()
	}()

	s.mu.Lock()
	s.tabSlots = tabSlots
	s.ruleSlots = ruleSlots
	s.miNoTabs = miNoTabs
	s.miViewLastDiff = miViewLastDiff
	s.ready = true
	s.renderTabs()
	s.renderRules()
	s.renderLastChange()
	s.mu.Unlock()

	logging.FromContext(s.ctx).Info().Msg("systray ready")
}

func (s *SystrayManager) onExit() {
	logging.FromContext(s.ctx).Info().Msg("systray exiting")
}

func (s *SystrayManager) onClick(item *systray.MenuItem, fn func()) {
	if fn == nil {
		item.Disable()
		return
	}
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

func (s *SystrayManager) watchTabSlot(i int, item *systray.MenuItem) {
	for range item.ClickedCh {
		s.mu.Lock()
		var id browser.TabID
		ok := i < len(s.tabs)
		if ok {
			id = s.tabs[i].ID
		}
		s.mu.Unlock()
		if ok && s.actions.SelectTab != nil {
			s.actions.SelectTab(id)
		}
	}
}

// render* must be called with s.mu held.

func (s *SystrayManager) renderTabs() {
	if len(s.tabs) == 0 {
		s.miNoTabs.Show()
	} else {
		s.miNoTabs.Hide()
	}
	for i, slot := range s.tabSlots {
		if i >= len(s.tabs) {
			slot.Hide()
			continue
		}
		slot.SetTitle(tabTitle(s.tabs[i]))
		if s.tabs[i].Active {
			slot.Check()
		} else {
			slot.Uncheck()
		}
		slot.Show()
	}
}

func (s *SystrayManager) renderRules() {
	for i, slot := range s.ruleSlots {
		if i >= len(s.pairs) {
			slot.Hide()
			continue
		}
		slot.SetTitle(ruleTitle(s.pairs[i]))
		slot.Show()
	}
}

func (s *SystrayManager) renderLastChange() {
	if s.lastChange {
		s.miViewLastDiff.Enable()
	} else {
		s.miViewLastDiff.Disable()
	}
}

func tabTitle(t TabEntry) string {
	return fmt.Sprintf("[%d] %s", t.ID, truncate(t.Title, 48))
}

func ruleTitle(p popup.Pair) string {
	if p.Find == "" {
		return fmt.Sprintf("#%d (empty)", p.Number)
	}
	var flags string
	if p.UseRegex {
		flags += " /re/"
	}
	if p.CaseSensitive {
		flags += " Aa"
	}
	return fmt.Sprintf("#%d %s → %s%s", p.Number, truncate(p.Find, 24), truncate(p.Replace, 24), flags)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
