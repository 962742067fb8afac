//go:build windows

// Package winsvc runs the serve daemon under the Windows Service Control
// Manager.
package winsvc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// stopTimeout bounds the wait for run to return after a stop request.
const stopTimeout = 30 * time.Second

// eventLogWriter sends each log line to the Windows Event Log. The level is
// recovered from the slog text or JSON record.
type eventLogWriter struct {
	elog *eventlog.Log
}

func (w *eventLogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	var err error
	switch {
	case strings.Contains(msg, "level=ERROR"), strings.Contains(msg, `"level":"ERROR"`):
		err = w.elog.Error(3, msg)
	case strings.Contains(msg, "level=WARN"), strings.Contains(msg, `"level":"WARN"`):
		err = w.elog.Warning(2, msg)
	default:
		err = w.elog.Info(1, msg)
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// EventLog opens the named event log source as a log destination. ok is
// false when the source cannot be opened and the caller should keep stderr.
func EventLog(name string) (w io.Writer, ok bool) {
	elog, err := eventlog.Open(name)
	if err != nil {
		return nil, false
	}
	return &eventLogWriter{elog: elog}, true
}

// IsWindowsService reports whether the process is running as a
// Windows service.
func IsWindowsService() bool {
	ok, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return ok
}

// serviceHandler implements svc.Handler for a long-running function.
type serviceHandler struct {
	name   string
	run    func(ctx context.Context) error
	logger *slog.Logger
}

func (h *serviceHandler) Execute(_ []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.run(ctx)
	}()

	status <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case err := <-errCh:
			status <- svc.Status{State: svc.StopPending}
			if err != nil {
				h.logger.Error("service stopped with error", "service", h.name, "error", err)
				return false, 1
			}
			return false, 0

		case cr := <-req:
			switch cr.Cmd {
			case svc.Interrogate:
				status <- cr.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case <-errCh:
				case <-time.After(stopTimeout):
					h.logger.Warn("timed out waiting for graceful shutdown", "service", h.name)
				}
				return false, 0
			}
		}
	}
}

// RunService runs the named Windows service, blocking until the service
// stops. run receives a context that is cancelled when the SCM requests a
// stop.
func RunService(name string, logger *slog.Logger, run func(ctx context.Context) error) error {
	return svc.Run(name, &serviceHandler{name: name, run: run, logger: logger})
}

// Install registers a Windows service with the Service Control Manager and
// creates an event log source.
func Install(name, displayName, description string, args []string, logger *slog.Logger) error {
	exePath, err := os.Executable()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "cannot determine executable path", err)
	}

	m, err := mgr.Connect()
	if err != nil {
		return errors.Wrap(errors.ErrCodeToolFailed, "connect to SCM", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err == nil {
		s.Close()
		return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("service %s already exists", name))
	}

	s, err = m.CreateService(name, exePath, mgr.Config{
		DisplayName: displayName,
		Description: description,
		StartType:   mgr.StartAutomatic,
	}, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeToolFailed, "create service", err)
	}
	defer s.Close()

	// Restart on the first two failures; reset after a day.
	_ = s.SetRecoveryActions([]mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 10 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
		{Type: mgr.NoAction},
	}, 86400)

	if err := eventlog.InstallAsEventCreate(name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		logger.Warn("could not install event log source", "service", name, "error", err)
	}
	return nil
}

// Uninstall stops and removes the named Windows service and its event log
// source.
func Uninstall(name string) error {
	m, err := mgr.Connect()
	if err != nil {
		return errors.Wrap(errors.ErrCodeToolFailed, "connect to SCM", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, "open service "+name, err)
	}
	defer s.Close()

	if st, err := s.Query(); err == nil && st.State != svc.Stopped {
		_, _ = s.Control(svc.Stop)
		for range 10 {
			time.Sleep(500 * time.Millisecond)
			st, err = s.Query()
			if err != nil || st.State == svc.Stopped {
				break
			}
		}
	}

	if err := s.Delete(); err != nil {
		return errors.Wrap(errors.ErrCodeToolFailed, "delete service", err)
	}
	_ = eventlog.Remove(name)
	return nil
}
