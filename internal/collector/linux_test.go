package collector

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
	"github.com/go-tangra/go-tangra-sysinventory/internal/runner"
)

const lscpuOutput = `Architecture:            x86_64
  CPU op-mode(s):        32-bit, 64-bit
CPU(s):                  16
  On-line CPU(s) list:   0-15
Vendor ID:               GenuineIntel
  Model name:            Intel(R) Core(TM) i7-10700 CPU @ 2.90GHz
    Thread(s) per core:  2
    CPU max MHz:         4800.0000
`

func TestParseLscpu(t *testing.T) {
	rec := parseLscpu(lscpuOutput)
	assert.Equal(t, CPURecord{
		"CPU(s)":             "16",
		"Model name":         "Intel(R) Core(TM) i7-10700 CPU @ 2.90GHz",
		"Thread(s) per core": "2",
		"CPU max MHz":        "4800.0000",
	}, rec)
}

func TestLinuxCPU_ToolMissing(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake())
	assert.Equal(t, CPURecord{ErrorKey: "lscpu not available"}, p.CPU(context.Background()))
}

func TestLinuxCPU_NoData(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake().On("Architecture: x86_64", "lscpu"))
	assert.Equal(t, CPURecord{ErrorKey: "could not read CPU information"}, p.CPU(context.Background()))
}

const lspciOutput = `00:02.0 VGA compatible controller: Intel Corporation UHD Graphics 630 (rev 02)
00:1f.3 Audio device: Intel Corporation Cannon Lake PCH cAVS (rev 10)
01:00.0 VGA compatible controller: NVIDIA Corporation GA102 [GeForce RTX 3080] (rev a1)
`

func TestLinuxGPUs_NVIDIAEnrichment(t *testing.T) {
	r := runner.NewFake().
		On(lspciOutput, "lspci").
		On("535.54.03, 10240 MiB", "nvidia-smi", "--query-gpu=driver_version,memory.total", "--format=csv,noheader")
	p := newTestProbe(platform.Linux, r)

	gpus := p.GPUs(context.Background())
	require.Len(t, gpus, 2)

	assert.Equal(t, "Intel Corporation UHD Graphics 630 (rev 02)", gpus[0].Name)
	assert.Equal(t, extract.Unknown, gpus[0].DriverVersion)
	assert.Equal(t, extract.Text(extract.Unknown), *gpus[0].DedicatedMemory)

	assert.Equal(t, "NVIDIA Corporation GA102 [GeForce RTX 3080] (rev a1)", gpus[1].Name)
	assert.Equal(t, "535.54.03", gpus[1].DriverVersion)
	assert.Equal(t, extract.Number(10240), *gpus[1].DedicatedMemory)
}

func TestLinuxGPUs_NoNvidiaSMI(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake().On(lspciOutput, "lspci"))
	gpus := p.GPUs(context.Background())
	require.Len(t, gpus, 2)
	assert.Equal(t, extract.Unknown, gpus[1].DriverVersion)
}

func TestLinuxGPUs_NoVGA(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake().On("00:1f.3 Audio device: Intel", "lspci"))
	gpus := p.GPUs(context.Background())
	require.Len(t, gpus, 1)
	assert.Equal(t, "could not read GPU information", gpus[0].Error)
}

const dmidecodeOutput = `# dmidecode 3.3
Handle 0x0040, DMI type 17, 92 bytes
Memory Device
	Size: 16 GB
	Locator: DIMM A1
	Speed: 3200 MT/s
	Manufacturer: Samsung

Handle 0x0041, DMI type 17, 92 bytes
Memory Device
	Size: No Module Installed
	Speed: Unknown
	Manufacturer: Not Specified

Handle 0x0042, DMI type 17, 92 bytes
Memory Device
	Size: 8192 MB
	Speed: 2666 MT/s
`

func TestParseDmidecodeMemory(t *testing.T) {
	mods := parseDmidecodeMemory(dmidecodeOutput)
	require.Len(t, mods, 2)

	assert.Equal(t, extract.Number(16), *mods[0].Capacity)
	assert.Equal(t, "3200 MT/s", mods[0].Speed)
	assert.Equal(t, "Samsung", mods[0].Manufacturer)

	assert.Equal(t, extract.Number(8), *mods[1].Capacity)
	assert.Equal(t, "2666 MT/s", mods[1].Speed)
	assert.Empty(t, mods[1].Manufacturer)
}

func TestLinuxMemory_Failure(t *testing.T) {
	r := runner.NewFake().Tools("dmidecode")
	p := newTestProbe(platform.Linux, r)
	mods := p.Memory(context.Background())
	require.Len(t, mods, 1)
	assert.Contains(t, mods[0].Error, "error executing RAM information on Linux")
}

func TestParseLsblk(t *testing.T) {
	out := `NAME        SIZE TYPE MODEL
nvme0n1   476.9G disk Samsung SSD 970 EVO Plus 500GB
nvme0n1p1   512M part
sda         1.8T disk
sr0        1024M rom  DVD RW
`
	disks := parseLsblk(out)
	require.Len(t, disks, 2)
	assert.Equal(t, StorageDevice{
		Name:     "nvme0n1",
		Capacity: ptr(extract.Text("476.9G")),
		Type:     "disk",
		Model:    "Samsung SSD 970 EVO Plus 500GB",
	}, disks[0])
	assert.Equal(t, extract.Unknown, disks[1].Model)
}

func TestParseDpkgQuery(t *testing.T) {
	apps := parseDpkgQuery("bash 5.1-6ubuntu1 amd64\nbroken-line\nzlib1g 1:1.2.11 amd64\n")
	require.Len(t, apps, 2)
	assert.Equal(t, Application{Name: "bash", Version: "5.1-6ubuntu1", Architecture: "amd64"}, apps[0])
	assert.Equal(t, "1:1.2.11", apps[1].Version)
}

func TestLinuxApplications_ToolMissing(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake())
	apps := p.Applications(context.Background())
	require.Len(t, apps, 1)
	assert.Equal(t, Application{Error: "dpkg-query not available"}, apps[0])
}

const lsusbOutput = `Bus 002 Device 001: ID 1d6b:0003 Linux Foundation 3.0 root hub
Bus 001 Device 003: ID 046d:c52b Logitech, Inc. Unifying Receiver
Bus 001 Device 004: ID 0c45:6366 Microdia Webcam Vitade AF
`

func TestLinuxPeripherals(t *testing.T) {
	lshw := `  *-input:0
       product: Power Button
       physical id: 1
  *-input:1
       product: AT Translated Set 2 keyboard
`
	r := runner.NewFake().On(lsusbOutput, "lsusb").On(lshw, "lshw", "-C", "input")
	p := newTestProbe(platform.Linux, r)

	devices := p.Peripherals(context.Background())
	require.Len(t, devices, 5)
	assert.Equal(t, "Linux Foundation 3.0 root hub", devices[0].Description)
	assert.Equal(t, "Logitech, Inc. Unifying Receiver", devices[1].Description)
	assert.Equal(t, extract.CategoryCamera, devices[2].Category)
	assert.Equal(t, "AT Translated Set 2 keyboard", devices[4].Description)
	assert.Equal(t, extract.CategoryInput, devices[4].Category)
	for _, d := range devices {
		assert.Equal(t, extract.NotAvailable, d.DriverVersion)
	}
}

func TestLinuxPeripherals_OnlyLsusb(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake().On(lsusbOutput, "lsusb"))
	assert.Len(t, p.Peripherals(context.Background()), 3)
}

func TestLinuxPeripherals_NoTools(t *testing.T) {
	p := newTestProbe(platform.Linux, runner.NewFake())
	devices := p.Peripherals(context.Background())
	require.Len(t, devices, 1)
	assert.Equal(t, "lsusb and lshw not available", devices[0].Error)
}

func TestLinuxPeripherals_LsusbFails(t *testing.T) {
	failure := errors.Wrap(errors.ErrCodeToolFailed, "error executing USB device listing",
		stderrors.New("unable to initialize libusb: -99"))
	p := newTestProbe(platform.Linux, runner.NewFake().Fail(failure, "lsusb"))

	devices := p.Peripherals(context.Background())
	require.Len(t, devices, 1)
	assert.Equal(t, "error executing USB device listing: unable to initialize libusb: -99", devices[0].Error)
}

func TestLinuxPeripherals_LshwFailsKeepsUSB(t *testing.T) {
	r := runner.NewFake().
		On(lsusbOutput, "lsusb").
		Fail(errors.New(errors.ErrCodeToolFailed, "lshw crashed"), "lshw", "-C", "input")
	p := newTestProbe(platform.Linux, r)

	devices := p.Peripherals(context.Background())
	require.Len(t, devices, 3)
	assert.Empty(t, devices[0].Error)
}

func ptr[T any](v T) *T { return &v }
