package collector

import (
	"strconv"
	"strings"

	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
)

// WMIQuery runs a WQL query and decodes the rows into dst, a pointer to a
// slice of structs whose field names match the selected properties.
type WMIQuery func(query string, dst interface{}) error

const (
	queryProcessor     = "SELECT Name, NumberOfCores, NumberOfLogicalProcessors, MaxClockSpeed FROM Win32_Processor"
	queryVideo         = "SELECT Name, AdapterRAM, DriverVersion FROM Win32_VideoController"
	queryPhysicalMem   = "SELECT Capacity, Speed, Manufacturer FROM Win32_PhysicalMemory"
	queryDiskDrive     = "SELECT Caption, Size, MediaType, FirmwareRevision FROM Win32_DiskDrive"
	querySignedDrivers = "SELECT DeviceName, DriverVersion FROM Win32_PnPSignedDriver"
)

type win32Processor struct {
	Name                      string
	NumberOfCores             uint32
	NumberOfLogicalProcessors uint32
	MaxClockSpeed             uint32
}

type win32VideoController struct {
	Name          string
	AdapterRAM    uint32
	DriverVersion string
}

type win32PhysicalMemory struct {
	Capacity     uint64
	Speed        uint32
	Manufacturer string
}

type win32DiskDrive struct {
	Caption          string
	Size             uint64
	MediaType        string
	FirmwareRevision string
}

type win32PnPSignedDriver struct {
	DeviceName    *string
	DriverVersion *string
}

func processorRecord(procs []win32Processor) CPURecord {
	if len(procs) == 0 {
		return nil
	}
	p := procs[0]
	return CPURecord{
		"Name":                      strings.TrimSpace(p.Name),
		"NumberOfCores":             strconv.FormatUint(uint64(p.NumberOfCores), 10),
		"NumberOfLogicalProcessors": strconv.FormatUint(uint64(p.NumberOfLogicalProcessors), 10),
		"MaxClockSpeed":             strconv.FormatUint(uint64(p.MaxClockSpeed), 10),
	}
}

func videoControllerGPUs(rows []win32VideoController) []GPU {
	gpus := make([]GPU, 0, len(rows))
	for _, r := range rows {
		m := extract.BytesToMB(strconv.FormatUint(uint64(r.AdapterRAM), 10))
		gpus = append(gpus, GPU{
			Name:            strings.TrimSpace(r.Name),
			DedicatedMemory: &m,
			DriverVersion:   r.DriverVersion,
		})
	}
	return gpus
}

func physicalMemoryModules(rows []win32PhysicalMemory) []MemoryModule {
	mods := make([]MemoryModule, 0, len(rows))
	for _, r := range rows {
		c := extract.BytesToGB(strconv.FormatUint(r.Capacity, 10))
		mods = append(mods, MemoryModule{
			Capacity:     &c,
			Speed:        strconv.FormatUint(uint64(r.Speed), 10),
			Manufacturer: strings.TrimSpace(r.Manufacturer),
		})
	}
	return mods
}

func diskDriveDevices(rows []win32DiskDrive) []StorageDevice {
	disks := make([]StorageDevice, 0, len(rows))
	for _, r := range rows {
		c := extract.BytesToGB(strconv.FormatUint(r.Size, 10))
		disks = append(disks, StorageDevice{
			Name:            r.Caption,
			Capacity:        &c,
			Type:            r.MediaType,
			FirmwareVersion: strings.TrimSpace(r.FirmwareRevision),
		})
	}
	return disks
}

// signedDriverPeripherals skips drivers that have no device name.
func signedDriverPeripherals(rows []win32PnPSignedDriver) []Peripheral {
	var devices []Peripheral
	for _, r := range rows {
		if r.DeviceName == nil || strings.TrimSpace(*r.DeviceName) == "" {
			continue
		}
		version := extract.Unknown
		if r.DriverVersion != nil && *r.DriverVersion != "" {
			version = *r.DriverVersion
		}
		devices = append(devices, newPeripheral(strings.TrimSpace(*r.DeviceName), version))
	}
	return devices
}
