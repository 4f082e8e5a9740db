//go:build windows

package hotkey

import (
	"gitlab.com/tozd/go/errors"
	"golang.design/x/hotkey"
)

func nativeModifiers(c Combo) ([]hotkey.Modifier, error) {
	var modifiers []hotkey.Modifier
	for _, m := range c.Modifiers {
		switch m {
		case "ctrl":
			modifiers = append(modifiers, hotkey.ModCtrl)
		case "alt":
			modifiers = append(modifiers, hotkey.ModAlt)
		case "shift":
			modifiers = append(modifiers, hotkey.ModShift)
		case "super":
			modifiers = append(modifiers, hotkey.ModWin)
		default:
			return nil, errors.Errorf("unsupported modifier: %s", m)
		}
	}
	return modifiers, nil
}
