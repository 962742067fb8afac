package errors

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeNoData, "nothing parsed"),
			want: "[NO_DATA] nothing parsed",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeToolMissing, "lscpu not available", exec.ErrNotFound),
			want: "[TOOL_MISSING] lscpu not available: executable file not found in $PATH",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStructuredError_Unwrap(t *testing.T) {
	err := Wrap(ErrCodeToolFailed, "run dmidecode", exec.ErrNotFound)
	assert.True(t, stderrors.Is(err, exec.ErrNotFound))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("collect gpu: %w", New(ErrCodeToolMissing, "lspci missing"))
	assert.Equal(t, ErrCodeToolMissing, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestIs(t *testing.T) {
	inner := New(ErrCodeRegistryKeyNotFound, "uninstall key")
	outer := WrapWithContext(ErrCodeNoData, "no applications", inner, map[string]any{"platform": "Windows"})

	assert.True(t, Is(outer, ErrCodeNoData))
	assert.True(t, Is(outer, ErrCodeRegistryKeyNotFound))
	assert.False(t, Is(outer, ErrCodeIO))
	assert.False(t, Is(nil, ErrCodeIO))
	assert.Equal(t, "Windows", outer.Context["platform"])
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "lscpu not available", Summary(Wrap(ErrCodeToolMissing, "lscpu not available", exec.ErrNotFound)))
	assert.Equal(t, "error executing lscpu: boom", Summary(Wrap(ErrCodeToolFailed, "error executing lscpu", stderrors.New("boom"))))
	assert.Equal(t, "nothing parsed", Summary(New(ErrCodeNoData, "nothing parsed")))
	assert.Equal(t, "plain", Summary(stderrors.New("plain")))
	assert.Equal(t, "outer", Summary(fmt.Errorf("wrapped: %w", New(ErrCodeNoData, "outer"))))
}
