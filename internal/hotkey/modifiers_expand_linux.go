//go:build linux

package hotkey

import "golang.design/x/hotkey"

// CapsLock is LockMask; NumLock is usually Mod2.
const linuxCapsLockMask hotkey.Modifier = 1 << 1

// expandModifiers returns the lock-state variants XGrabKey needs so the
// combination still fires with NumLock or CapsLock on.
func expandModifiers(modifiers []hotkey.Modifier) [][]hotkey.Modifier {
	with := func(extra ...hotkey.Modifier) []hotkey.Modifier {
		return append(append([]hotkey.Modifier(nil), modifiers...), extra...)
	}
	return [][]hotkey.Modifier{
		with(),
		with(hotkey.Mod2),
		with(linuxCapsLockMask),
		with(hotkey.Mod2, linuxCapsLockMask),
	}
}
