// Package hotkey registers the global key combinations that trigger popup
// actions from anywhere on the desktop.
package hotkey

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
	"golang.design/x/hotkey"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// Binding ties a combination to an action.
type Binding struct {
	Name   string
	Combo  string
	Action func()
}

// Manager handles registration and lifecycle of global hotkeys.
type Manager struct {
	ctx      context.Context
	mu       sync.Mutex
	bindings []Binding
	grabbed  map[string][]*hotkey.Hotkey
}

// NewManager creates a manager for the given bindings. Bindings with an
// empty combination are ignored.
func NewManager(ctx context.Context, bindings ...Binding) *Manager {
	return &Manager{
		ctx:      logging.WithComponent(ctx, "hotkey"),
		bindings: bindings,
		grabbed:  make(map[string][]*hotkey.Hotkey),
	}
}

// SetBindings replaces the bindings. Call RegisterAll to apply them.
func (m *Manager) SetBindings(bindings ...Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = bindings
}

// RegisterAll unregisters everything and registers the current bindings.
// Two bindings may not share a combination.
func (m *Manager) RegisterAll() error {
	m.UnregisterAll()

	m.mu.Lock()
	defer m.mu.Unlock()
	log := logging.FromContext(m.ctx)

	for _, b := range m.bindings {
		if b.Combo == "" {
			continue
		}
		combo, err := Parse(b.Combo)
		if err != nil {
			return errors.Errorf("hotkey %q for %s: %w", b.Combo, b.Name, err)
		}
		if _, taken := m.grabbed[combo.String()]; taken {
			return errors.Errorf("hotkey %q for %s is already bound", b.Combo, b.Name)
		}
		if err := m.register(combo, b); err != nil {
			return errors.Errorf("failed to register hotkey %q for %s: %w", b.Combo, b.Name, err)
		}
		log.Info().Str("hotkey", combo.String()).Str("action", b.Name).Msg("hotkey registered")
	}
	return nil
}

func (m *Manager) register(combo Combo, b Binding) error {
	modifiers, err := nativeModifiers(combo)
	if err != nil {
		return err
	}
	key := KeyMap[combo.Key]

	var grabbed []*hotkey.Hotkey
	for _, variant := range expandModifiers(modifiers) {
		hk := hotkey.New(variant, key)
		if err := hk.Register(); err != nil {
			if len(grabbed) == 0 {
				return errors.WithStack(err)
			}
			// lock-state variants are best effort once the base grab worked
			logging.FromContext(m.ctx).Debug().Err(err).Str("hotkey", combo.String()).Msg("variant not registered")
			continue
		}
		grabbed = append(grabbed, hk)
		go m.listen(hk, combo, b)
	}
	m.grabbed[combo.String()] = grabbed
	return nil
}

func (m *Manager) listen(hk *hotkey.Hotkey, combo Combo, b Binding) {
	for range hk.Keydown() {
		logging.FromContext(m.ctx).Debug().Str("hotkey", combo.String()).Str("action", b.Name).Msg("hotkey pressed")
		if b.Action != nil {
			b.Action()
		}
	}
}

// UnregisterAll releases every grabbed combination.
func (m *Manager) UnregisterAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hks := range m.grabbed {
		for _, hk := range hks {
			if err := hk.Unregister(); err != nil {
				logging.FromContext(m.ctx).Debug().Err(err).Msg("unregister failed")
			}
		}
	}
	m.grabbed = make(map[string][]*hotkey.Hotkey)
}
