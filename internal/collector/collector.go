package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
	"github.com/go-tangra/go-tangra-sysinventory/internal/runner"
)

// Probe collects every inventory domain on one platform. Each method
// returns real data or a sentinel record; none of them fails.
type Probe interface {
	Platform() platform.Platform
	OperatingSystem(ctx context.Context) OSRecord
	CPU(ctx context.Context) CPURecord
	GPUs(ctx context.Context) []GPU
	Memory(ctx context.Context) []MemoryModule
	Storage(ctx context.Context) []StorageDevice
	Applications(ctx context.Context) []Application
	Peripherals(ctx context.Context) []Peripheral
}

// Option configures the dependencies of a Probe.
type Option func(*deps)

// WithRunner sets the command runner used for native tools.
func WithRunner(r runner.Runner) Option {
	return func(d *deps) { d.runner = r }
}

// WithHostInfo replaces the generic OS API lookup.
func WithHostInfo(fn func(ctx context.Context) (HostInfo, error)) Option {
	return func(d *deps) { d.hostInfo = fn }
}

// WithSMBIOS replaces the SMBIOS reader. A nil fn disables the system block.
func WithSMBIOS(fn func() (*SystemInfo, error)) Option {
	return func(d *deps) { d.smbios = fn }
}

// WithRegistry replaces the Windows Uninstall key reader.
func WithRegistry(r RegistryReader) Option {
	return func(d *deps) { d.registry = r }
}

// WithWMI replaces the WMI query function used by the Windows probe. A nil
// fn makes the probe go straight to wmic.
func WithWMI(fn WMIQuery) Option {
	return func(d *deps) { d.wmi = fn }
}

// WithLogger sets the logger used for console notices.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithClock sets the time source for collection timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

type deps struct {
	runner   runner.Runner
	hostInfo func(ctx context.Context) (HostInfo, error)
	smbios   func() (*SystemInfo, error)
	registry RegistryReader
	wmi      WMIQuery
	logger   *slog.Logger
	now      func() time.Time
}

// New returns the Probe for p. The platform is resolved once here; the
// returned Probe never branches on it again.
func New(p platform.Platform, opts ...Option) Probe {
	d := &deps{
		runner:   runner.NewExec(),
		hostInfo: gopsutilHostInfo,
		smbios:   readSMBIOS,
		registry: nativeRegistry{},
		wmi:      nativeWMIQuery,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	switch p {
	case platform.Windows:
		return &windowsProbe{d}
	case platform.Linux:
		return &linuxProbe{d}
	case platform.MacOS:
		return &darwinProbe{d}
	default:
		return &unsupportedProbe{d}
	}
}

// CollectHardware runs the OS, CPU, GPU, memory and storage collectors in
// sequence.
func CollectHardware(ctx context.Context, p Probe) HardwareReport {
	return HardwareReport{
		OperatingSystem: p.OperatingSystem(ctx),
		CPU:             p.CPU(ctx),
		GPUs:            p.GPUs(ctx),
		Memory:          p.Memory(ctx),
		Storage:         p.Storage(ctx),
	}
}

// CollectApplications runs the applications collector and stamps the result.
func CollectApplications(ctx context.Context, p Probe, now func() time.Time) ApplicationsReport {
	if now == nil {
		now = time.Now
	}
	return ApplicationsReport{
		CollectedAt:  collectedAt(now),
		Applications: p.Applications(ctx),
	}
}

// CollectPeripherals runs the peripherals collector.
func CollectPeripherals(ctx context.Context, p Probe) []Peripheral {
	return p.Peripherals(ctx)
}

// exec checks that name is on PATH and runs it. Failures are logged and
// returned as coded errors.
func (d *deps) exec(ctx context.Context, domain, description, name string, args ...string) (string, error) {
	if !d.runner.Available(name) {
		err := errors.New(errors.ErrCodeToolMissing, fmt.Sprintf("%s not available", name))
		d.logger.Warn("tool not available", "domain", domain, "tool", name)
		return "", err
	}
	out, err := d.runner.Run(ctx, description, name, args...)
	if err != nil {
		d.logger.Warn("error executing tool", "domain", domain, "tool", name, "error", err)
		return "", err
	}
	return out, nil
}

// noData builds and logs the error used when a tool printed nothing usable.
func (d *deps) noData(domain, message string) error {
	d.logger.Warn("no data parsed", "domain", domain, "reason", message)
	return errors.New(errors.ErrCodeNoData, message)
}

// unsupported builds and logs the error used on unknown platforms.
func (d *deps) unsupported(domain string) error {
	d.logger.Warn("unsupported platform", "domain", domain)
	return errors.New(errors.ErrCodeUnsupportedPlatform, "unsupported platform")
}

// sentinelMessage renders err for the reserved error field of a record.
func sentinelMessage(err error) string {
	return errors.Summary(err)
}

func cpuSentinel(err error) CPURecord {
	return CPURecord{ErrorKey: sentinelMessage(err)}
}

func gpuSentinel(err error) []GPU {
	return []GPU{{Error: sentinelMessage(err)}}
}

func memorySentinel(err error) []MemoryModule {
	return []MemoryModule{{Error: sentinelMessage(err)}}
}

func storageSentinel(err error) []StorageDevice {
	return []StorageDevice{{Error: sentinelMessage(err)}}
}

func applicationSentinel(err error) []Application {
	return []Application{{Error: sentinelMessage(err)}}
}

func peripheralSentinel(err error) []Peripheral {
	return []Peripheral{{Error: sentinelMessage(err)}}
}
