package collector

import (
	"context"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
)

type linuxProbe struct{ *deps }

func (*linuxProbe) Platform() platform.Platform { return platform.Linux }

func (p *linuxProbe) OperatingSystem(ctx context.Context) OSRecord {
	return p.genericOS(ctx, platform.Linux.String(), runtime.GOARCH)
}

func (p *linuxProbe) CPU(ctx context.Context) CPURecord {
	out, err := p.exec(ctx, "cpu", "CPU information on Linux", "lscpu")
	if err != nil {
		return cpuSentinel(err)
	}
	rec := parseLscpu(out)
	if len(rec) == 0 {
		return cpuSentinel(p.noData("cpu", "could not read CPU information"))
	}
	return rec
}

func (p *linuxProbe) GPUs(ctx context.Context) []GPU {
	out, err := p.exec(ctx, "gpu", "GPU listing on Linux", "lspci")
	if err != nil {
		return gpuSentinel(err)
	}

	devices := filterVGA(out)
	var nvidia []string
	if hasNVIDIA(devices) && p.runner.Available("nvidia-smi") {
		smi, err := p.exec(ctx, "gpu", "NVIDIA GPU information on Linux",
			"nvidia-smi", "--query-gpu=driver_version,memory.total", "--format=csv,noheader")
		if err == nil {
			nvidia = extract.Lines(smi)
		}
	}

	gpus := buildLinuxGPUs(devices, nvidia)
	if len(gpus) == 0 {
		return gpuSentinel(p.noData("gpu", "could not read GPU information"))
	}
	return gpus
}

func (p *linuxProbe) Memory(ctx context.Context) []MemoryModule {
	out, err := p.exec(ctx, "memory", "RAM information on Linux", "dmidecode", "-t", "memory")
	if err != nil {
		return memorySentinel(err)
	}
	mods := parseDmidecodeMemory(out)
	if len(mods) == 0 {
		return memorySentinel(p.noData("memory", "could not read RAM information"))
	}
	return mods
}

func (p *linuxProbe) Storage(ctx context.Context) []StorageDevice {
	out, err := p.exec(ctx, "storage", "storage information on Linux", "lsblk", "-o", "NAME,SIZE,TYPE,MODEL")
	if err != nil {
		return storageSentinel(err)
	}
	disks := parseLsblk(out)
	if len(disks) == 0 {
		return storageSentinel(p.noData("storage", "could not read storage information"))
	}
	return disks
}

func (p *linuxProbe) Applications(ctx context.Context) []Application {
	out, err := p.exec(ctx, "applications", "dpkg-query",
		"dpkg-query", "-W", `--showformat=${Package} ${Version} ${Architecture}\n`)
	if err != nil {
		return applicationSentinel(err)
	}
	apps := parseDpkgQuery(out)
	if len(apps) == 0 {
		return applicationSentinel(p.noData("applications", "no packages reported by dpkg-query"))
	}
	return apps
}

func (p *linuxProbe) Peripherals(ctx context.Context) []Peripheral {
	var devices []Peripheral
	var lastErr error
	ran := false

	if p.runner.Available("lsusb") {
		ran = true
		out, err := p.exec(ctx, "peripherals", "USB device listing", "lsusb")
		if err != nil {
			lastErr = err
		} else {
			devices = append(devices, parseLsusb(out)...)
		}
	} else {
		p.logger.Warn("tool not available", "domain", "peripherals", "tool", "lsusb")
	}

	if p.runner.Available("lshw") {
		ran = true
		out, err := p.exec(ctx, "peripherals", "input device listing", "lshw", "-C", "input")
		if err != nil {
			lastErr = err
		} else {
			devices = append(devices, parseLshwInput(out)...)
		}
	} else {
		p.logger.Warn("tool not available", "domain", "peripherals", "tool", "lshw")
	}

	if !ran {
		return peripheralSentinel(errors.New(errors.ErrCodeToolMissing, "lsusb and lshw not available"))
	}
	if len(devices) == 0 {
		if lastErr != nil {
			return peripheralSentinel(lastErr)
		}
		return peripheralSentinel(p.noData("peripherals", "no peripherals found"))
	}
	return devices
}

var lscpuFilter = regexp.MustCompile(`Model name|^CPU\(s\)|Thread|MHz`)

func parseLscpu(out string) CPURecord {
	rec := CPURecord{}
	for _, line := range extract.Lines(out) {
		if !lscpuFilter.MatchString(line) {
			continue
		}
		if k, v, ok := extract.SplitKV(line, ":"); ok && k != "" {
			rec[k] = v
		}
	}
	return rec
}

func filterVGA(out string) []string {
	var devices []string
	for _, line := range extract.Lines(out) {
		if strings.Contains(strings.ToLower(line), "vga") {
			devices = append(devices, line)
		}
	}
	return devices
}

func hasNVIDIA(devices []string) bool {
	for _, d := range devices {
		if strings.Contains(d, "NVIDIA") {
			return true
		}
	}
	return false
}

// buildLinuxGPUs pairs the n-th NVIDIA lspci line with the n-th nvidia-smi
// row ("driver_version, memory.total").
func buildLinuxGPUs(devices, nvidia []string) []GPU {
	gpus := make([]GPU, 0, len(devices))
	nv := 0
	for _, line := range devices {
		name := line
		if i := strings.LastIndex(line, ":"); i >= 0 {
			name = line[i+1:]
		}
		mem := extract.Text(extract.Unknown)
		gpu := GPU{
			Name:            strings.TrimSpace(name),
			DedicatedMemory: &mem,
			DriverVersion:   extract.Unknown,
		}
		if strings.Contains(line, "NVIDIA") {
			if nv < len(nvidia) {
				driver, total, ok := extract.SplitKV(nvidia[nv], ",")
				if ok {
					gpu.DriverVersion = driver
					m := extract.SizeToMB(total)
					gpu.DedicatedMemory = &m
				}
			}
			nv++
		}
		gpus = append(gpus, gpu)
	}
	return gpus
}

// parseDmidecodeMemory folds "dmidecode -t memory" into modules. A module is
// flushed once size, speed and manufacturer are all seen, or when a new
// Memory Device section starts. Empty slots are dropped.
func parseDmidecodeMemory(out string) []MemoryModule {
	var mods []MemoryModule
	var cur MemoryModule
	fields := 0
	empty := false

	flush := func() {
		if fields > 0 && !empty {
			mods = append(mods, cur)
		}
		cur, fields, empty = MemoryModule{}, 0, false
	}

	for _, line := range extract.Lines(out) {
		if strings.TrimSpace(line) == "Memory Device" {
			flush()
			continue
		}
		k, v, ok := extract.SplitKV(line, ":")
		if !ok {
			continue
		}
		switch k {
		case "Size":
			if strings.HasPrefix(v, "No Module Installed") {
				empty = true
			}
			c := extract.SizeToGB(v)
			cur.Capacity = &c
		case "Speed":
			cur.Speed = v
		case "Manufacturer":
			cur.Manufacturer = v
		default:
			continue
		}
		fields++
		if fields == 3 {
			flush()
		}
	}
	flush()
	return mods
}

// parseLsblk keeps rows whose TYPE column is "disk".
func parseLsblk(out string) []StorageDevice {
	var disks []StorageDevice
	for _, line := range extract.Lines(out) {
		parts := extract.Fields(line)
		if len(parts) < 3 || parts[2] != "disk" {
			continue
		}
		capacity := extract.Text(parts[1])
		model := extract.Unknown
		if len(parts) > 3 {
			model = strings.Join(parts[3:], " ")
		}
		disks = append(disks, StorageDevice{
			Name:     parts[0],
			Capacity: &capacity,
			Type:     parts[2],
			Model:    model,
		})
	}
	return disks
}

func parseDpkgQuery(out string) []Application {
	var apps []Application
	for _, line := range extract.Lines(out) {
		parts := strings.Split(strings.TrimSpace(line), " ")
		if len(parts) < 3 {
			continue
		}
		apps = append(apps, Application{
			Name:         parts[0],
			Version:      parts[1],
			Architecture: parts[2],
		})
	}
	return apps
}

// parseLsusb takes the text after the "ID vvvv:pppp" token of each line.
func parseLsusb(out string) []Peripheral {
	var devices []Peripheral
	for _, line := range extract.Lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		desc := lsusbDescription(line)
		if desc == "" {
			continue
		}
		devices = append(devices, newPeripheral(desc, extract.NotAvailable))
	}
	return devices
}

func lsusbDescription(line string) string {
	f := extract.Fields(line)
	for i, tok := range f {
		if tok == "ID" && i+1 < len(f) {
			return strings.Join(f[i+2:], " ")
		}
	}
	if i := strings.LastIndex(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return strings.TrimSpace(line)
}

func parseLshwInput(out string) []Peripheral {
	var devices []Peripheral
	for _, line := range extract.Lines(out) {
		_, desc, ok := strings.Cut(line, "product:")
		if !ok {
			continue
		}
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		devices = append(devices, newPeripheral(desc, extract.NotAvailable))
	}
	return devices
}

func newPeripheral(desc, driver string) Peripheral {
	return Peripheral{
		Description:   desc,
		Category:      extract.Classify(desc),
		DriverVersion: driver,
	}
}
