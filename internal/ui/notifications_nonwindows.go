//go:build !windows

package ui

import (
	"os"

	"github.com/gen2brain/beeep"
)

func (n *NotificationManager) platformNotify(title, message string) error {
	iconPath, err := writeTempIcon(n.icon)
	if err != nil {
		iconPath = ""
	} else {
		defer os.Remove(iconPath)
	}
	return beeep.Notify(title, message, iconPath)
}
