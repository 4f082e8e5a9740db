package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ncruces/zenity"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/rules"
	"github.com/TanaroSch/page-regex-replace/internal/ui"
)

const (
	optCaseSensitive = "Case sensitive"
	optUseRegex      = "Use regex"
)

// canceled logs a dialog error and reports whether the flow should stop.
func (a *Application) canceled(err error, step string) bool {
	if err == nil {
		return false
	}
	log := logging.FromContext(a.ctx)
	if errors.Is(err, zenity.ErrCanceled) {
		log.Debug().Str("step", step).Msg("dialog canceled")
	} else {
		log.Warn().Err(err).Str("step", step).Msg("dialog failed")
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Input Error", "Failed to read "+step+".")
	}
	return true
}

func (a *Application) onAddRule() {
	title := zenity.Title(AppName + " - Add Rule")

	find, err := zenity.Entry("Find (use {{name}} to insert a managed secret):", title, zenity.DisallowEmpty())
	if a.canceled(err, "find text") {
		return
	}
	replace, err := zenity.Entry("Replace with:", title)
	if a.canceled(err, "replacement text") {
		return
	}
	opts, err := zenity.ListMultiple("Options:", []string{optCaseSensitive, optUseRegex}, title, zenity.Height(220))
	if a.canceled(err, "rule options") {
		return
	}

	rule := rules.Rule{
		Find:          find,
		Replace:       replace,
		CaseSensitive: slices.Contains(opts, optCaseSensitive),
		UseRegex:      slices.Contains(opts, optUseRegex),
	}
	if err := a.addRule(rule); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Save Error", err.Error())
		return
	}
	a.notifier.ShowAdminNotification(ui.LevelInfo, "Rule Added", fmt.Sprintf("%q → %q", find, replace))
	a.refresh()
}

// addRule fills the blank row a fresh list starts with before appending.
func (a *Application) addRule(rule rules.Rule) error {
	pairs := a.controller.Pairs()
	if len(pairs) == 1 && pairs[0].Rule == (rules.Rule{}) {
		return a.controller.UpdatePair(a.ctx, 0, rule)
	}
	return a.controller.AddPair(a.ctx, rule)
}

func (a *Application) onRemoveRule(index int) {
	pairs := a.controller.Pairs()
	if index >= len(pairs) {
		return
	}
	p := pairs[index]
	err := zenity.Question(
		fmt.Sprintf("Remove pair #%d (%q → %q)?", p.Number, p.Find, p.Replace),
		zenity.Title(AppName+" - Remove Rule"),
		zenity.WarningIcon,
		zenity.OKLabel("Remove"),
		zenity.CancelLabel("Cancel"),
	)
	if a.canceled(err, "confirmation") {
		return
	}

	removed, err := a.controller.RemovePair(a.ctx, index)
	switch {
	case err != nil:
		a.notifier.ShowAdminNotification(ui.LevelError, "Save Error", err.Error())
	case !removed:
		// the last row is cleared instead
		if err := a.controller.UpdatePair(a.ctx, 0, rules.Rule{}); err != nil {
			a.notifier.ShowAdminNotification(ui.LevelError, "Save Error", err.Error())
		}
	}
	a.refresh()
}

func (a *Application) onAddSecret() {
	cfg := a.config()

	name, err := zenity.Entry("Step 1: Enter logical name\n(e.g., my_api_key, no spaces)",
		zenity.Title(AppName+" - Add/Update Secret"), zenity.DisallowEmpty())
	if a.canceled(err, "secret name") {
		return
	}
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, " \t{}") {
		a.notifier.ShowAdminNotification(ui.LevelWarn, "Invalid Name", "Secret names cannot contain spaces or braces.")
		return
	}

	_, value, err := zenity.Password(zenity.Title(AppName + " - Step 2: Value for '" + name + "'"))
	if a.canceled(err, "secret value") {
		return
	}

	if err := cfg.AddSecretReference(name, value); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Keyring Error", err.Error())
		return
	}

	err = zenity.Question(
		fmt.Sprintf("Secret '%s' stored.\n\nAdd a rule that replaces {{%s}} now?", name, name),
		zenity.Title(AppName+" - Optional Step 3"),
		zenity.OKLabel("Yes, Add Rule"),
		zenity.CancelLabel("No, Just Store Secret"),
	)
	if err == nil {
		replace, err := zenity.Entry("Replace {{"+name+"}} with:", zenity.Title(AppName+" - Add Rule"))
		if !a.canceled(err, "replacement text") {
			if err := a.addRule(rules.Rule{Find: "{{" + name + "}}", Replace: replace, CaseSensitive: true}); err != nil {
				a.notifier.ShowAdminNotification(ui.LevelError, "Save Error", err.Error())
			}
		}
	}

	a.onReloadConfig()
}

func (a *Application) onListSecrets() {
	names := a.config().GetSecretNames()
	msg := "No secrets are currently managed."
	if len(names) > 0 {
		msg = fmt.Sprintf("Managed secrets (%d):\n- %s", len(names), strings.Join(names, "\n- "))
	}
	if err := zenity.Info(msg, zenity.Title(AppName+" - Managed Secrets"), zenity.InfoIcon); err != nil {
		a.canceled(err, "secret list")
	}
}

func (a *Application) onRemoveSecret() {
	cfg := a.config()
	names := cfg.GetSecretNames()
	if len(names) == 0 {
		_ = zenity.Info("No secrets are currently managed.", zenity.Title(AppName+" - Remove Secret"), zenity.InfoIcon)
		return
	}

	name, err := zenity.List("Select secret to remove:", names, zenity.Title(AppName+" - Remove Secret"))
	if a.canceled(err, "secret selection") || name == "" {
		return
	}
	err = zenity.Question(
		fmt.Sprintf("Remove secret '%s'? Rules using {{%s}} will no longer be resolved.", name, name),
		zenity.Title(AppName+" - Confirm Removal"),
		zenity.WarningIcon,
		zenity.OKLabel("Remove"),
		zenity.CancelLabel("Cancel"),
	)
	if a.canceled(err, "confirmation") {
		return
	}
	if err := cfg.RemoveSecretReference(a.ctx, name); err != nil {
		a.notifier.ShowAdminNotification(ui.LevelError, "Remove Secret", err.Error())
		return
	}
	a.onReloadConfig()
}
