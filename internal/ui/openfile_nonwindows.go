//go:build !windows

package ui

import (
	"context"
	"os/exec"
	"runtime"

	"gitlab.com/tozd/go/errors"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// OpenFileInDefaultApp opens filePath with the desktop's handler for it.
func OpenFileInDefaultApp(ctx context.Context, filePath string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", filePath)
	default:
		cmd = exec.Command("xdg-open", filePath)
	}

	logging.FromContext(ctx).Debug().Str("cmd", cmd.String()).Msg("opening file")
	if err := cmd.Start(); err != nil {
		return errors.Errorf("failed to start command (%s): %w", cmd.String(), err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
