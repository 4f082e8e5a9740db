//go:build linux

package hotkey

import (
	"gitlab.com/tozd/go/errors"
	"golang.design/x/hotkey"
)

// nativeModifiers maps a combo onto X11 modifier masks. Alt is Mod1 and
// Super is Mod4.
func nativeModifiers(c Combo) ([]hotkey.Modifier, error) {
	var modifiers []hotkey.Modifier
	for _, m := range c.Modifiers {
		switch m {
		case "ctrl":
			modifiers = append(modifiers, hotkey.ModCtrl)
		case "alt":
			modifiers = append(modifiers, hotkey.Mod1)
		case "shift":
			modifiers = append(modifiers, hotkey.ModShift)
		case "super":
			modifiers = append(modifiers, hotkey.Mod4)
		default:
			return nil, errors.Errorf("unsupported modifier: %s", m)
		}
	}
	return modifiers, nil
}
