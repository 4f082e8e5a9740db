//go:build !windows && !linux

package hotkey

import (
	"gitlab.com/tozd/go/errors"
	"golang.design/x/hotkey"
)

// nativeModifiers is not implemented on this OS; the tray still works
// without global hotkeys.
func nativeModifiers(Combo) ([]hotkey.Modifier, error) {
	return nil, errors.New("hotkeys are not supported on this OS")
}

func expandModifiers(modifiers []hotkey.Modifier) [][]hotkey.Modifier {
	return [][]hotkey.Modifier{modifiers}
}
