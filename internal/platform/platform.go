// Package platform identifies which collection strategy applies to the host.
package platform

import "runtime"

// Platform is one of the host families the collectors know how to probe.
type Platform int

const (
	Unsupported Platform = iota
	Windows
	Linux
	MacOS
)

// Current returns the platform of the running process.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to a Platform.
func FromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin":
		return MacOS
	default:
		return Unsupported
	}
}

func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case Linux:
		return "Linux"
	case MacOS:
		return "macOS"
	default:
		return "Unsupported"
	}
}
