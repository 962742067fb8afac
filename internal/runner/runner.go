// Package runner executes native inventory tools and classifies their failures.
package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// Runner runs external programs on behalf of a collector.
type Runner interface {
	// Run executes name with args and returns trimmed stdout. description is
	// only used in error messages.
	Run(ctx context.Context, description, name string, args ...string) (string, error)
	// Available reports whether name resolves to an executable on PATH.
	Available(name string) bool
}

// CommandLine renders a command the way it would be typed in a shell.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Exec runs commands with os/exec. No timeout is applied; the caller's
// context is the only way to interrupt a hung tool.
type Exec struct{}

// NewExec returns a Runner backed by os/exec.
func NewExec() *Exec {
	return &Exec{}
}

// Available implements Runner.
func (Exec) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run implements Runner.
func (Exec) Run(ctx context.Context, description, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}

	errCtx := map[string]any{"command": CommandLine(name, args...)}

	var exitErr *exec.ExitError
	switch {
	case stderrors.As(err, &exitErr):
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = exitErr.Error()
		}
		return "", errors.WrapWithContext(errors.ErrCodeToolFailed,
			fmt.Sprintf("error executing %s", description), stderrors.New(msg), errCtx)
	case stderrors.Is(err, exec.ErrNotFound):
		return "", errors.WrapWithContext(errors.ErrCodeToolMissing,
			fmt.Sprintf("%s not available", name), err, errCtx)
	default:
		return "", errors.WrapWithContext(errors.ErrCodeToolFailed,
			fmt.Sprintf("cannot start %s", description), err, errCtx)
	}
}
