//go:build !windows

package winsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

func TestUnsupportedOffWindows(t *testing.T) {
	assert.False(t, IsWindowsService())

	_, ok := EventLog("SysInventory")
	assert.False(t, ok)

	err := RunService("SysInventory", nil, func(context.Context) error { return nil })
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedPlatform))
	assert.True(t, errors.Is(Install("a", "b", "c", nil, nil), errors.ErrCodeUnsupportedPlatform))
	assert.True(t, errors.Is(Uninstall("a"), errors.ErrCodeUnsupportedPlatform))
}
