package collector

import (
	"context"

	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
)

// unsupportedProbe answers every domain with a sentinel record.
type unsupportedProbe struct{ *deps }

func (*unsupportedProbe) Platform() platform.Platform { return platform.Unsupported }

func (p *unsupportedProbe) OperatingSystem(context.Context) OSRecord {
	return OSRecord{Error: sentinelMessage(p.unsupported("os"))}
}

func (p *unsupportedProbe) CPU(context.Context) CPURecord {
	return cpuSentinel(p.unsupported("cpu"))
}

func (p *unsupportedProbe) GPUs(context.Context) []GPU {
	return gpuSentinel(p.unsupported("gpu"))
}

func (p *unsupportedProbe) Memory(context.Context) []MemoryModule {
	return memorySentinel(p.unsupported("memory"))
}

func (p *unsupportedProbe) Storage(context.Context) []StorageDevice {
	return storageSentinel(p.unsupported("storage"))
}

func (p *unsupportedProbe) Applications(context.Context) []Application {
	return applicationSentinel(p.unsupported("applications"))
}

func (p *unsupportedProbe) Peripherals(context.Context) []Peripheral {
	return peripheralSentinel(p.unsupported("peripherals"))
}
