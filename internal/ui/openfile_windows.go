//go:build windows

package ui

import (
	"context"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// OpenFileInDefaultApp opens filePath with the desktop's handler for it.
func OpenFileInDefaultApp(ctx context.Context, filePath string) error {
	logging.FromContext(ctx).Debug().Str("path", filePath).Msg("opening file with ShellExecuteW")
	return shellOpen(filePath)
}
