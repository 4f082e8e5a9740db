package hotkey

import (
	"strconv"

	"golang.design/x/hotkey"
)

// KeyMap maps the key names accepted in config to hotkey keys.
var KeyMap = buildKeyMap()

func buildKeyMap() map[string]hotkey.Key {
	letters := []hotkey.Key{
		hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF, hotkey.KeyG,
		hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN,
		hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT, hotkey.KeyU,
		hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY, hotkey.KeyZ,
	}
	digits := []hotkey.Key{
		hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
		hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
	}
	functions := []hotkey.Key{
		hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5, hotkey.KeyF6,
		hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10, hotkey.KeyF11, hotkey.KeyF12,
	}

	m := map[string]hotkey.Key{
		"space":  hotkey.KeySpace,
		"tab":    hotkey.KeyTab,
		"enter":  hotkey.KeyReturn,
		"return": hotkey.KeyReturn,
		"escape": hotkey.KeyEscape,
		"esc":    hotkey.KeyEscape,
		"delete": hotkey.KeyDelete,
		"up":     hotkey.KeyUp,
		"down":   hotkey.KeyDown,
		"left":   hotkey.KeyLeft,
		"right":  hotkey.KeyRight,
	}
	for i, k := range letters {
		m[string(rune('a'+i))] = k
	}
	for i, k := range digits {
		m[string(rune('0'+i))] = k
	}
	for i, k := range functions {
		m["f"+strconv.Itoa(i+1)] = k
	}
	return m
}
