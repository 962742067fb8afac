//go:build !windows

package collector

import "github.com/go-tangra/go-tangra-sysinventory/internal/errors"

func nativeWMIQuery(string, interface{}) error {
	return errors.New(errors.ErrCodeUnsupportedPlatform, "WMI not available on this platform")
}
