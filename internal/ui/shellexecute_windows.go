//go:build windows

package ui

import (
	"syscall"
	"unsafe"

	"gitlab.com/tozd/go/errors"
)

const swShowNormal = 1

var (
	shell32           = syscall.NewLazyDLL("shell32.dll")
	procShellExecuteW = shell32.NewProc("ShellExecuteW")
)

func utf16OrNil(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	p, err := syscall.UTF16PtrFromString(s)
	if err != nil {
		return nil, errors.Errorf("converting %q to UTF-16: %w", s, err)
	}
	return p, nil
}

// shellExecute calls ShellExecuteW. Return values above 32 mean success.
func shellExecute(verb, file string, showCmd int32) error {
	lpVerb, err := utf16OrNil(verb)
	if err != nil {
		return err
	}
	lpFile, err := utf16OrNil(file)
	if err != nil {
		return err
	}

	ret, _, callErr := procShellExecuteW.Call(
		0,
		uintptr(unsafe.Pointer(lpVerb)),
		uintptr(unsafe.Pointer(lpFile)),
		0,
		0,
		uintptr(showCmd),
	)
	if ret > 32 {
		return nil
	}
	if errno, ok := callErr.(syscall.Errno); ok && errno != 0 {
		return errors.Errorf("ShellExecuteW failed with return code %d: %w", ret, callErr)
	}
	return errors.Errorf("ShellExecuteW failed with return code %d", ret)
}

func shellOpen(filePath string) error {
	return shellExecute("open", filePath, swShowNormal)
}
