package ui

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
	"github.com/TanaroSch/page-regex-replace/internal/popup"
)

// Level classifies administrative notifications.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// NotificationManager shows desktop notifications.
type NotificationManager struct {
	ctx     context.Context
	appName string
	icon    []byte

	mu      sync.Mutex
	enabled bool
}

// NewNotificationManager creates a manager. When disabled, only warnings and
// errors are shown.
func NewNotificationManager(ctx context.Context, enabled bool, appName string, icon []byte) *NotificationManager {
	return &NotificationManager{
		ctx:     logging.WithComponent(ctx, "notify"),
		appName: appName,
		icon:    icon,
		enabled: enabled,
	}
}

// SetEnabled toggles result notifications.
func (n *NotificationManager) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

func (n *NotificationManager) isEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// ShowNotification displays a result notification if enabled.
func (n *NotificationManager) ShowNotification(title, message string) {
	if !n.isEnabled() {
		logging.FromContext(n.ctx).Debug().Str("title", title).Msg("notification suppressed")
		return
	}
	n.send(title, message)
}

// ShowAdminNotification displays a notification about the application
// itself. Warnings and errors bypass the enabled switch.
func (n *NotificationManager) ShowAdminNotification(level Level, title, message string) {
	logging.FromContext(n.ctx).Info().Str("level", level.String()).Str("title", title).Str("message", message).Msg("admin notification")
	if level == LevelInfo && !n.isEnabled() {
		return
	}
	n.send(title, message)
}

// Notify reports a popup status.
func (n *NotificationManager) Notify(s popup.Status) {
	if s.IsError {
		n.ShowAdminNotification(LevelWarn, n.appName, s.Message)
		return
	}
	n.ShowNotification(n.appName, s.Message)
}

func (n *NotificationManager) send(title, message string) {
	if err := n.platformNotify(title, message); err != nil {
		logging.FromContext(n.ctx).Warn().Err(err).Msg("notification failed")
	}
}

// writeTempIcon writes the embedded icon to a temporary file for notifiers
// that need a path.
func writeTempIcon(iconData []byte) (string, error) {
	if len(iconData) == 0 {
		return "", errors.New("cannot write empty icon data")
	}
	tmpFile, err := os.CreateTemp("", "pageregex-icon-*.ico")
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer tmpFile.Close()

	if _, err := tmpFile.Write(iconData); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", errors.WithStack(err)
	}
	absPath, err := filepath.Abs(tmpFile.Name())
	if err != nil {
		return tmpFile.Name(), nil
	}
	return absPath, nil
}

var _ popup.Notifier = (*NotificationManager)(nil)
