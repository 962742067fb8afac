//go:build windows

package collector

import (
	stderrors "errors"
	"strconv"

	"golang.org/x/sys/windows/registry"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// nativeRegistry reads HKEY_LOCAL_MACHINE through the Win32 registry API.
type nativeRegistry struct{}

func (nativeRegistry) UninstallEntries(path string) ([]map[string]string, error) {
	root, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		if stderrors.Is(err, registry.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeRegistryKeyNotFound, path, err)
		}
		return nil, errors.Wrap(errors.ErrCodeToolFailed, "open "+path, err)
	}
	defer root.Close()

	names, err := root.ReadSubKeyNames(-1)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, "enumerate "+path, err)
	}

	entries := make([]map[string]string, 0, len(names))
	for _, name := range names {
		sub, err := registry.OpenKey(root, name, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		entries = append(entries, readValues(sub))
		sub.Close()
	}
	return entries, nil
}

func readValues(k registry.Key) map[string]string {
	values := make(map[string]string, len(uninstallValues))
	for _, name := range uninstallValues {
		if s, _, err := k.GetStringValue(name); err == nil {
			values[name] = s
			continue
		}
		// InstallDate is occasionally written as a DWORD.
		if n, _, err := k.GetIntegerValue(name); err == nil {
			values[name] = strconv.FormatUint(n, 10)
		}
	}
	return values
}
