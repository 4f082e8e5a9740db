//go:build windows

package ui

import (
	"os"
	"strings"
	"time"

	"github.com/go-toast/toast"
	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

func (n *NotificationManager) platformNotify(title, message string) error {
	log := logging.FromContext(n.ctx)

	iconPath, err := writeTempIcon(n.icon)
	if err != nil {
		log.Debug().Err(err).Msg("no icon for toast")
		iconPath = ""
	} else {
		// toast reads the icon asynchronously
		time.AfterFunc(10*time.Second, func() {
			if errRem := os.Remove(iconPath); errRem != nil && !os.IsNotExist(errRem) {
				log.Debug().Err(errRem).Str("path", iconPath).Msg("removing temporary icon")
			}
		})
	}

	notification := toast.Notification{
		AppID:   n.appName,
		Title:   title,
		Message: message,
		Icon:    iconPath,
	}
	if err := notification.Push(); err != nil {
		if strings.Contains(err.Error(), "notification platform is unavailable") {
			return errors.Errorf("notifications are disabled in Windows settings: %w", err)
		}
		return errors.WithStack(err)
	}
	return nil
}
