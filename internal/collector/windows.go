package collector

import (
	"context"
	"runtime"
	"strings"
	"unicode"

	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
)

type windowsProbe struct{ *deps }

func (*windowsProbe) Platform() platform.Platform { return platform.Windows }

func (p *windowsProbe) OperatingSystem(ctx context.Context) OSRecord {
	return p.genericOS(ctx, platform.Windows.String(), runtime.GOARCH)
}

func (p *windowsProbe) wmic(ctx context.Context, domain, description string, args ...string) (string, error) {
	return p.exec(ctx, domain, description, "wmic", args...)
}

// query runs a WMI query and reports whether it produced rows. Failures are
// logged so the caller can fall back to wmic.
func (p *windowsProbe) query(domain, q string, dst interface{}, rows func() int) bool {
	if p.wmi == nil {
		return false
	}
	if err := p.wmi(q, dst); err != nil {
		p.logger.Debug("WMI query failed, falling back to wmic", "domain", domain, "error", err)
		return false
	}
	return rows() > 0
}

func (p *windowsProbe) CPU(ctx context.Context) CPURecord {
	var procs []win32Processor
	if p.query("cpu", queryProcessor, &procs, func() int { return len(procs) }) {
		return processorRecord(procs)
	}

	out, err := p.wmic(ctx, "cpu", "CPU information on Windows",
		"cpu", "get", "Name,NumberOfCores,NumberOfLogicalProcessors,MaxClockSpeed", "/format:list")
	if err != nil {
		return cpuSentinel(err)
	}
	rec := parseWMICCPU(out)
	if len(rec) == 0 {
		return cpuSentinel(p.noData("cpu", "could not read CPU information"))
	}
	return rec
}

func (p *windowsProbe) GPUs(ctx context.Context) []GPU {
	var rows []win32VideoController
	if p.query("gpu", queryVideo, &rows, func() int { return len(rows) }) {
		return videoControllerGPUs(rows)
	}

	out, err := p.wmic(ctx, "gpu", "GPU listing on Windows",
		"path", "win32_videocontroller", "get", "Name,AdapterRAM,DriverVersion", "/format:list")
	if err != nil {
		return gpuSentinel(err)
	}
	gpus := parseWMICGPUs(out)
	if len(gpus) == 0 {
		return gpuSentinel(p.noData("gpu", "could not read GPU information"))
	}
	return gpus
}

func (p *windowsProbe) Memory(ctx context.Context) []MemoryModule {
	var rows []win32PhysicalMemory
	if p.query("memory", queryPhysicalMem, &rows, func() int { return len(rows) }) {
		return physicalMemoryModules(rows)
	}

	out, err := p.wmic(ctx, "memory", "RAM information on Windows",
		"memorychip", "get", "Capacity,Speed,Manufacturer", "/format:list")
	if err != nil {
		return memorySentinel(err)
	}
	mods := parseWMICMemory(out)
	if len(mods) == 0 {
		return memorySentinel(p.noData("memory", "could not read RAM information"))
	}
	return mods
}

func (p *windowsProbe) Storage(ctx context.Context) []StorageDevice {
	var rows []win32DiskDrive
	if p.query("storage", queryDiskDrive, &rows, func() int { return len(rows) }) {
		return diskDriveDevices(rows)
	}

	out, err := p.wmic(ctx, "storage", "storage information on Windows",
		"diskdrive", "get", "Caption,Size,MediaType,FirmwareRevision", "/format:list")
	if err != nil {
		return storageSentinel(err)
	}
	disks := parseWMICDiskDrives(out)
	if len(disks) == 0 {
		return storageSentinel(p.noData("storage", "could not read storage information"))
	}
	return disks
}

func (p *windowsProbe) Applications(context.Context) []Application {
	var apps []Application
	var lastErr error
	for _, key := range UninstallKeys {
		entries, err := p.registry.UninstallEntries(key)
		if err != nil {
			p.logger.Warn("error accessing registry", "domain", "applications", "key", key, "error", err)
			lastErr = err
			continue
		}
		for _, e := range entries {
			apps = append(apps, Application{
				Name:        extract.OrUnknown(e[ValueDisplayName]),
				Version:     extract.OrUnknown(e[ValueDisplayVersion]),
				Publisher:   extract.OrUnknown(e[ValuePublisher]),
				InstallPath: extract.OrUnknown(e[ValueInstallLocation]),
				InstallDate: extract.OrUnknown(e[ValueInstallDate]),
			})
		}
	}
	if len(apps) == 0 {
		if lastErr != nil {
			return applicationSentinel(lastErr)
		}
		return applicationSentinel(p.noData("applications", "no applications found in the registry"))
	}
	return apps
}

func (p *windowsProbe) Peripherals(ctx context.Context) []Peripheral {
	var rows []win32PnPSignedDriver
	if p.query("peripherals", querySignedDrivers, &rows, func() int { return len(rows) }) {
		if devices := signedDriverPeripherals(rows); len(devices) > 0 {
			return devices
		}
	}

	out, err := p.wmic(ctx, "peripherals", "signed driver listing",
		"path", "Win32_PnPSignedDriver", "get", "DeviceName,DriverVersion")
	if err != nil {
		return peripheralSentinel(err)
	}
	devices := parsePnPSignedDrivers(out)
	if len(devices) == 0 {
		return peripheralSentinel(p.noData("peripherals", "no peripherals found"))
	}
	return devices
}

// wmicPairs yields the Key=Value pairs of "/format:list" output.
func wmicPairs(out string, fn func(key, value string)) {
	for _, line := range extract.Lines(out) {
		if k, v, ok := extract.SplitKV(line, "="); ok && k != "" {
			fn(k, v)
		}
	}
}

func parseWMICCPU(out string) CPURecord {
	rec := CPURecord{}
	wmicPairs(out, func(k, v string) { rec[k] = v })
	return rec
}

// parseWMICGPUs groups Name, AdapterRAM and DriverVersion in batches of
// three; a trailing partial batch is kept.
func parseWMICGPUs(out string) []GPU {
	var gpus []GPU
	var cur GPU
	n := 0
	wmicPairs(out, func(k, v string) {
		switch k {
		case "Name":
			cur.Name = v
		case "AdapterRAM":
			m := extract.BytesToMB(v)
			cur.DedicatedMemory = &m
		case "DriverVersion":
			cur.DriverVersion = v
		default:
			return
		}
		n++
		if n == 3 {
			gpus = append(gpus, cur)
			cur, n = GPU{}, 0
		}
	})
	if n > 0 {
		gpus = append(gpus, cur)
	}
	return gpus
}

func parseWMICMemory(out string) []MemoryModule {
	var mods []MemoryModule
	var cur MemoryModule
	n := 0
	wmicPairs(out, func(k, v string) {
		switch k {
		case "Capacity":
			c := extract.BytesToGB(v)
			cur.Capacity = &c
		case "Speed":
			cur.Speed = v
		case "Manufacturer":
			cur.Manufacturer = v
		default:
			return
		}
		n++
		if n == 3 {
			mods = append(mods, cur)
			cur, n = MemoryModule{}, 0
		}
	})
	if n > 0 {
		mods = append(mods, cur)
	}
	return mods
}

// parseWMICDiskDrives starts a new disk on every Caption key.
func parseWMICDiskDrives(out string) []StorageDevice {
	var disks []StorageDevice
	var cur *StorageDevice
	wmicPairs(out, func(k, v string) {
		if k == "Caption" {
			if cur != nil {
				disks = append(disks, *cur)
			}
			cur = &StorageDevice{Name: v}
			return
		}
		if cur == nil {
			cur = &StorageDevice{}
		}
		switch k {
		case "Size":
			c := extract.BytesToGB(v)
			cur.Capacity = &c
		case "MediaType":
			cur.Type = v
		case "FirmwareRevision":
			cur.FirmwareVersion = v
		}
	})
	if cur != nil {
		disks = append(disks, *cur)
	}
	return disks
}

// parsePnPSignedDrivers splits table rows into device name and driver
// version, the version being the last whitespace token. Rows whose last
// token does not look like a version keep the whole text as the name.
func parsePnPSignedDrivers(out string) []Peripheral {
	var devices []Peripheral
	for _, line := range extract.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" || isPnPHeader(line) {
			continue
		}
		name, version := extract.LastField(line)
		if name == "" && looksLikeVersion(version) {
			// driver without a device name
			continue
		}
		if name == "" || !looksLikeVersion(version) {
			name, version = line, extract.Unknown
		}
		devices = append(devices, newPeripheral(name, version))
	}
	return devices
}

func isPnPHeader(line string) bool {
	f := extract.Fields(line)
	return len(f) == 2 && f[0] == "DeviceName" && f[1] == "DriverVersion"
}

func looksLikeVersion(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}
