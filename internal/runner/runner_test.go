package runner

import (
	"context"
	stderrors "errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "lsusb", CommandLine("lsusb"))
	assert.Equal(t, "nmap -p 0-1023 -sV 127.0.0.1", CommandLine("nmap", "-p", "0-1023", "-sV", "127.0.0.1"))
}

func TestExec_MissingTool(t *testing.T) {
	r := NewExec()
	assert.False(t, r.Available("definitely-not-a-real-tool-4f2a"))

	_, err := r.Run(context.Background(), "bogus tool", "definitely-not-a-real-tool-4f2a")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeToolMissing, errors.CodeOf(err))
}

func TestExec_SuccessAndFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	r := NewExec()
	if !r.Available("sh") {
		t.Skip("sh not on PATH")
	}

	out, err := r.Run(context.Background(), "echo", "sh", "-c", "echo '  hello  '")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = r.Run(context.Background(), "failing tool", "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeToolFailed, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "error executing failing tool")
}

func TestFake(t *testing.T) {
	boom := stderrors.New("boom")
	f := NewFake().
		On("Bus 001 Device 002: ID 046d:c52b Logitech, Inc. Unifying Receiver", "lsusb").
		Fail(boom, "lshw", "-C", "input").
		Tools("nmap")

	assert.True(t, f.Available("lsusb"))
	assert.True(t, f.Available("nmap"))
	assert.False(t, f.Available("dmidecode"))

	out, err := f.Run(context.Background(), "usb", "lsusb")
	require.NoError(t, err)
	assert.Contains(t, out, "Logitech")

	_, err = f.Run(context.Background(), "input", "lshw", "-C", "input")
	assert.ErrorIs(t, err, boom)

	_, err = f.Run(context.Background(), "nmap", "nmap", "-p", "22")
	assert.Equal(t, errors.ErrCodeToolFailed, errors.CodeOf(err))

	_, err = f.Run(context.Background(), "memory", "dmidecode", "-t", "memory")
	assert.Equal(t, errors.ErrCodeToolMissing, errors.CodeOf(err))

	f.Missing("lsusb")
	assert.False(t, f.Available("lsusb"))

	assert.Equal(t, []string{"lsusb", "lshw -C input", "nmap -p 22", "dmidecode -t memory"}, f.Calls())
}
