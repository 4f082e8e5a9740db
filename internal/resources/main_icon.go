// Package resources embeds the tray and notification icon.
package resources

import (
	_ "embed"

	"gitlab.com/tozd/go/errors"
)

// ErrIconNotFound is returned when the binary was built without an icon.
var ErrIconNotFound = errors.Base("embedded icon is empty")

//go:embed icon.ico
var iconData []byte

// GetIcon returns the bytes of the embedded icon.
func GetIcon() ([]byte, error) {
	if len(iconData) == 0 {
		return nil, errors.WithStack(ErrIconNotFound)
	}
	return iconData, nil
}
