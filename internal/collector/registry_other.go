//go:build !windows

package collector

import "github.com/go-tangra/go-tangra-sysinventory/internal/errors"

// nativeRegistry is unavailable off Windows.
type nativeRegistry struct{}

func (nativeRegistry) UninstallEntries(path string) ([]map[string]string, error) {
	return nil, errors.New(errors.ErrCodeUnsupportedPlatform, "registry not available on this platform: "+path)
}
