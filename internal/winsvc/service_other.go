//go:build !windows

// Package winsvc runs the serve daemon under the Windows Service Control
// Manager. Elsewhere every entry point reports an unsupported platform.
package winsvc

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

func unsupported(what string) error {
	return errors.New(errors.ErrCodeUnsupportedPlatform, what+" requires Windows")
}

// EventLog is unavailable off Windows.
func EventLog(string) (io.Writer, bool) { return nil, false }

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool { return false }

// RunService is not supported on non-Windows platforms.
func RunService(string, *slog.Logger, func(ctx context.Context) error) error {
	return unsupported("running as a service")
}

// Install is not supported on non-Windows platforms.
func Install(_, _, _ string, _ []string, _ *slog.Logger) error {
	return unsupported("service install")
}

// Uninstall is not supported on non-Windows platforms.
func Uninstall(string) error {
	return unsupported("service uninstall")
}
