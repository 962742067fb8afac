package collector

import (
	"time"

	"github.com/go-tangra/go-tangra-sysinventory/internal/extract"
)

// ErrorKey is the reserved field that marks a sentinel record.
const ErrorKey = "error"

// HardwareReport is the OS_HW document: operating system, CPU, GPUs,
// memory modules and storage devices of one host.
type HardwareReport struct {
	OperatingSystem OSRecord        `json:"operating_system"`
	CPU             CPURecord       `json:"cpu"`
	GPUs            []GPU           `json:"gpus"`
	Memory          []MemoryModule  `json:"memory"`
	Storage         []StorageDevice `json:"storage"`
}

// OSRecord describes the operating system. macOS reports a free-text
// Details blob instead of separate version and architecture fields.
type OSRecord struct {
	Name         string      `json:"os_name,omitempty"`
	Version      string      `json:"os_version,omitempty"`
	Kernel       string      `json:"kernel_version,omitempty"`
	Architecture string      `json:"architecture,omitempty"`
	Details      string      `json:"details,omitempty"`
	System       *SystemInfo `json:"system,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// SystemInfo holds the SMBIOS identity of the machine.
type SystemInfo struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	UUID         string `json:"uuid,omitempty"`
}

// CPURecord maps the native tool's field names to their values. A sentinel
// record holds only ErrorKey.
type CPURecord map[string]string

// GPU is one graphics adapter.
type GPU struct {
	Name            string          `json:"name,omitempty"`
	DedicatedMemory *extract.Amount `json:"dedicated_memory_mb,omitempty"`
	DriverVersion   string          `json:"driver_version,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// MemoryModule is one physical memory module.
type MemoryModule struct {
	Capacity     *extract.Amount `json:"capacity_gb,omitempty"`
	Speed        string          `json:"speed,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// StorageDevice is one disk. Field coverage depends on the platform.
type StorageDevice struct {
	Name            string          `json:"name,omitempty"`
	Capacity        *extract.Amount `json:"capacity,omitempty"`
	Type            string          `json:"type,omitempty"`
	Model           string          `json:"model,omitempty"`
	FirmwareVersion string          `json:"firmware_version,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// ApplicationsReport is the aplicaciones document.
type ApplicationsReport struct {
	CollectedAt  string        `json:"collected_at"`
	Applications []Application `json:"applications"`
}

// Application is one installed program or package.
type Application struct {
	Name         string `json:"name,omitempty"`
	Version      string `json:"version,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	InstallPath  string `json:"install_path,omitempty"`
	InstallDate  string `json:"install_date,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Peripheral is one attached device.
type Peripheral struct {
	Description   string           `json:"description,omitempty"`
	Category      extract.Category `json:"category,omitempty"`
	DriverVersion string           `json:"driver_version,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// HostInfo is the subset of generic OS facts the OS record needs.
type HostInfo struct {
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
}

// TimestampLayout formats collection times in the applications document.
const TimestampLayout = "2006-01-02 15:04:05"

func collectedAt(now func() time.Time) string {
	return now().Format(TimestampLayout)
}
