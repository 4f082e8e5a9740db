package hotkey

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Combo is a parsed key combination such as "ctrl+alt+r".
type Combo struct {
	Modifiers []string // ctrl, alt, shift, super; in input order
	Key       string
}

func (c Combo) String() string {
	return strings.Join(append(append([]string(nil), c.Modifiers...), c.Key), "+")
}

// Parse validates a combination string. Modifier aliases ("win", "cmd") are
// normalised to "super".
func Parse(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return Combo{}, errors.New("empty hotkey")
	}
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")

	keyStr := strings.TrimSpace(parts[len(parts)-1])
	if _, ok := KeyMap[keyStr]; !ok {
		return Combo{}, errors.Errorf("unsupported key: %s", keyStr)
	}

	combo := Combo{Key: keyStr}
	seen := make(map[string]bool)
	for _, part := range parts[:len(parts)-1] {
		mod := strings.TrimSpace(part)
		switch mod {
		case "ctrl", "alt", "shift":
		case "super", "win", "cmd":
			mod = "super"
		default:
			return Combo{}, errors.Errorf("unsupported modifier: %s", part)
		}
		if seen[mod] {
			continue
		}
		seen[mod] = true
		combo.Modifiers = append(combo.Modifiers, mod)
	}
	return combo, nil
}
