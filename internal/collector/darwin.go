package collector

import (
	"context"
	"strings"
	"time"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
)

type darwinProbe struct{ *deps }

func (*darwinProbe) Platform() platform.Platform { return platform.MacOS }

func (p *darwinProbe) OperatingSystem(ctx context.Context) OSRecord {
	out, err := p.exec(ctx, "os", "system information on macOS", "sw_vers")
	if err != nil {
		return OSRecord{Error: sentinelMessage(err)}
	}
	return OSRecord{
		Name:    platform.MacOS.String(),
		Details: out,
		System:  p.systemInfo(),
	}
}

func (p *darwinProbe) CPU(ctx context.Context) CPURecord {
	out, err := p.exec(ctx, "cpu", "CPU information on macOS", "sysctl", "-n", "machdep.cpu.brand_string")
	if err != nil {
		return cpuSentinel(err)
	}
	if out == "" {
		return cpuSentinel(p.noData("cpu", "could not read CPU information"))
	}
	return CPURecord{"CPU Model": out}
}

func (p *darwinProbe) profiler(ctx context.Context, domain, description, dataType string) (string, error) {
	return p.exec(ctx, domain, description, "system_profiler", dataType)
}

func (p *darwinProbe) GPUs(ctx context.Context) []GPU {
	out, err := p.profiler(ctx, "gpu", "GPU information on macOS", "SPDisplaysDataType")
	if err != nil {
		return gpuSentinel(err)
	}
	gpus := parseDisplaysData(out)
	if len(gpus) == 0 {
		return gpuSentinel(p.noData("gpu", "could not read GPU information"))
	}
	return gpus
}

func (p *darwinProbe) Memory(ctx context.Context) []MemoryModule {
	out, err := p.profiler(ctx, "memory", "RAM information on macOS", "SPMemoryDataType")
	if err != nil {
		return memorySentinel(err)
	}
	mods := parseMemoryData(out)
	if len(mods) == 0 {
		return memorySentinel(p.noData("memory", "could not read RAM information"))
	}
	return mods
}

func (p *darwinProbe) Storage(ctx context.Context) []StorageDevice {
	out, err := p.exec(ctx, "storage", "storage information on macOS", "diskutil", "info", "-all")
	if err != nil {
		return storageSentinel(err)
	}
	disks := parseDiskutilInfo(out)
	if len(disks) == 0 {
		return storageSentinel(p.noData("storage", "could not read storage information"))
	}
	return disks
}

func (p *darwinProbe) Applications(ctx context.Context) []Application {
	out, err := p.profiler(ctx, "applications", "application listing on macOS", "SPApplicationsDataType")
	if err != nil {
		return applicationSentinel(err)
	}
	apps := parseApplicationsData(out)
	if len(apps) == 0 {
		return applicationSentinel(p.noData("applications", "no applications reported by system_profiler"))
	}
	return apps
}

func (p *darwinProbe) Peripherals(ctx context.Context) []Peripheral {
	if !p.runner.Available("system_profiler") {
		p.logger.Warn("tool not available", "domain", "peripherals", "tool", "system_profiler")
		return peripheralSentinel(errors.New(errors.ErrCodeToolMissing, "system_profiler not available"))
	}

	var devices []Peripheral
	var lastErr error
	for _, dataType := range []string{"SPUSBDataType", "SPBluetoothDataType"} {
		out, err := p.profiler(ctx, "peripherals", dataType, dataType)
		if err != nil {
			lastErr = err
			continue
		}
		devices = append(devices, parseProfilerDevices(out)...)
	}
	if len(devices) == 0 {
		if lastErr != nil {
			return peripheralSentinel(lastErr)
		}
		return peripheralSentinel(p.noData("peripherals", "no peripherals found"))
	}
	return devices
}

// profilerHeader reports whether line is a "Section Name:" header with no
// value, and returns the section name.
func profilerHeader(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasSuffix(t, ":") || strings.Contains(t, ": ") {
		return "", false
	}
	return strings.TrimSuffix(t, ":"), true
}

// parseDisplaysData starts a GPU at each "Chipset Model" line and flushes
// the previous one.
func parseDisplaysData(out string) []GPU {
	var gpus []GPU
	var cur *GPU
	for _, line := range extract.Lines(out) {
		k, v, ok := extract.SplitKV(line, ":")
		if !ok || v == "" {
			continue
		}
		switch k {
		case "Chipset Model":
			if cur != nil {
				gpus = append(gpus, *cur)
			}
			cur = newDisplayGPU(v)
		case "VRAM (Total)", "VRAM (Dynamic, Max)":
			if cur == nil {
				cur = newDisplayGPU("")
			}
			m := extract.SizeToMB(v)
			cur.DedicatedMemory = &m
		}
	}
	if cur != nil {
		gpus = append(gpus, *cur)
	}
	return gpus
}

// newDisplayGPU starts a GPU whose memory is unknown until a VRAM line is
// seen. Apple silicon reports none.
func newDisplayGPU(name string) *GPU {
	mem := extract.Text(extract.Unknown)
	return &GPU{Name: name, DedicatedMemory: &mem}
}

// parseMemoryData groups size, speed and manufacturer in batches of three.
// Apple silicon reports a single "Memory" line instead of per-slot sizes.
func parseMemoryData(out string) []MemoryModule {
	var mods []MemoryModule
	var cur MemoryModule
	n := 0
	for _, line := range extract.Lines(out) {
		k, v, ok := extract.SplitKV(line, ":")
		if !ok || v == "" {
			continue
		}
		switch k {
		case "Size", "Memory":
			c := extract.SizeToGB(v)
			cur.Capacity = &c
		case "Speed":
			cur.Speed = v
		case "Manufacturer":
			cur.Manufacturer = v
		default:
			continue
		}
		n++
		if n == 3 {
			mods = append(mods, cur)
			cur, n = MemoryModule{}, 0
		}
	}
	if n > 0 {
		mods = append(mods, cur)
	}
	return mods
}

// parseDiskutilInfo starts a device at each "Device Identifier" line.
func parseDiskutilInfo(out string) []StorageDevice {
	var disks []StorageDevice
	var cur *StorageDevice
	for _, line := range extract.Lines(out) {
		k, v, ok := extract.SplitKV(line, ":")
		if !ok {
			continue
		}
		if k == "Device Identifier" {
			if cur != nil {
				disks = append(disks, *cur)
			}
			cur = &StorageDevice{Name: v}
			continue
		}
		if cur == nil {
			continue
		}
		switch k {
		case "Disk Size", "Total Size":
			size, _, _ := strings.Cut(v, "(")
			c := extract.Text(strings.TrimSpace(size))
			cur.Capacity = &c
		case "Device / Media Name":
			cur.Model = v
		case "File System Personality":
			cur.Type = v
		}
	}
	if cur != nil {
		disks = append(disks, *cur)
	}
	return disks
}

// lastModifiedLayouts are tried in order for "Last Modified" values.
var lastModifiedLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"1/2/06, 3:04 PM",
}

func formatLastModified(v string) string {
	v = strings.ReplaceAll(v, "\u202f", " ")
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(TimestampLayout)
		}
	}
	return extract.Unknown
}

// parseApplicationsData names each application after its section header.
// "Location" follows "Last Modified", so an entry is flushed at the next
// header or at the end; entries without "Last Modified" are dropped.
func parseApplicationsData(out string) []Application {
	var apps []Application
	var cur *Application
	modified := false

	flush := func() {
		if cur != nil && modified {
			if cur.Name == "" {
				cur.Name = extract.Unknown
			}
			apps = append(apps, *cur)
		}
		cur, modified = nil, false
	}

	for _, line := range extract.Lines(out) {
		if name, ok := profilerHeader(line); ok {
			if line != strings.TrimLeft(line, " \t") {
				flush()
				cur = &Application{Name: name}
			}
			continue
		}
		k, v, ok := extract.SplitKV(line, ":")
		if !ok {
			continue
		}
		if cur == nil {
			cur = &Application{}
		}
		switch k {
		case "Version":
			cur.Version = v
		case "Obtained from":
			cur.Publisher = v
		case "Location":
			cur.InstallPath = v
		case "Last Modified":
			cur.LastModified = formatLastModified(v)
			modified = true
		}
	}
	flush()
	return apps
}

// parseProfilerDevices emits a section header as a device once a USB or
// Bluetooth identity key appears beneath it.
func parseProfilerDevices(out string) []Peripheral {
	var devices []Peripheral
	pending := ""
	for _, line := range extract.Lines(out) {
		if name, ok := profilerHeader(line); ok {
			pending = name
			continue
		}
		k, _, ok := extract.SplitKV(line, ":")
		if !ok || pending == "" {
			continue
		}
		switch k {
		case "Product ID", "Vendor ID", "Address":
			devices = append(devices, newPeripheral(pending, extract.NotAvailable))
			pending = ""
		}
	}
	return devices
}
