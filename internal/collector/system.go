package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/siderolabs/go-smbios/smbios"
)

// gopsutilHostInfo is the generic OS API used on Linux and Windows.
func gopsutilHostInfo(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	return HostInfo{
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
	}, nil
}

// readSMBIOS decodes the firmware SMBIOS tables for manufacturer, model,
// serial number and system UUID.
func readSMBIOS() (*SystemInfo, error) {
	s, err := smbios.New()
	if err != nil {
		return nil, err
	}
	info := &SystemInfo{
		Manufacturer: strings.TrimSpace(s.SystemInformation.Manufacturer),
		ProductName:  strings.TrimSpace(s.SystemInformation.ProductName),
		SerialNumber: strings.TrimSpace(s.SystemInformation.SerialNumber),
		UUID:         s.SystemInformation.UUID,
	}
	if *info == (SystemInfo{}) {
		return nil, nil
	}
	return info, nil
}

// genericOS builds the OS record from the generic OS API, shared by the
// Linux and Windows probes.
func (d *deps) genericOS(ctx context.Context, name, fallbackArch string) OSRecord {
	rec := OSRecord{Name: name}

	info, err := d.hostInfo(ctx)
	if err != nil {
		d.logger.Warn("host info unavailable", "domain", "os", "error", err)
		rec.Architecture = fallbackArch
	} else {
		rec.Version = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		rec.Kernel = info.KernelVersion
		rec.Architecture = info.KernelArch
		if rec.Architecture == "" {
			rec.Architecture = fallbackArch
		}
	}

	rec.System = d.systemInfo()
	return rec
}

func (d *deps) systemInfo() *SystemInfo {
	if d.smbios == nil {
		return nil
	}
	info, err := d.smbios()
	if err != nil {
		d.logger.Debug("smbios unavailable", "error", err)
		return nil
	}
	return info
}
