package hotkey

import (
	"context"
	"os"
	"runtime"

	"github.com/TanaroSch/page-regex-replace/internal/logging"
)

// DisplayServer is the windowing system global hotkeys register against.
type DisplayServer int

const (
	DisplayServerUnknown DisplayServer = iota
	DisplayServerWindows
	DisplayServerX11
	DisplayServerWayland
)

func (ds DisplayServer) String() string {
	switch ds {
	case DisplayServerWindows:
		return "Windows"
	case DisplayServerX11:
		return "X11"
	case DisplayServerWayland:
		return "Wayland"
	default:
		return "Unknown"
	}
}

// DetectDisplayServer inspects the environment. Safe on every platform.
func DetectDisplayServer(ctx context.Context) DisplayServer {
	ds := detect(runtime.GOOS, os.Getenv)
	logging.FromContext(ctx).Debug().Str("display_server", ds.String()).Msg("display server detected")
	return ds
}

func detect(goos string, getenv func(string) string) DisplayServer {
	switch {
	case goos == "windows":
		return DisplayServerWindows
	case getenv("WAYLAND_DISPLAY") != "":
		return DisplayServerWayland
	case getenv("DISPLAY") != "":
		return DisplayServerX11
	case goos == "darwin":
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// SupportsGlobalHotkeys reports whether grabbing keys can work. Wayland
// sessions only work through XWayland, which needs DISPLAY as well.
func SupportsGlobalHotkeys(ds DisplayServer, getenv func(string) string) bool {
	switch ds {
	case DisplayServerWindows, DisplayServerX11:
		return true
	case DisplayServerWayland:
		return getenv("DISPLAY") != ""
	}
	return false
}
