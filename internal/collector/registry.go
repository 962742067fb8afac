package collector

// UninstallKeys are the HKLM paths enumerated for installed applications.
var UninstallKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// Registry value names read from each Uninstall subkey.
const (
	ValueDisplayName     = "DisplayName"
	ValueDisplayVersion  = "DisplayVersion"
	ValuePublisher       = "Publisher"
	ValueInstallLocation = "InstallLocation"
	ValueInstallDate     = "InstallDate"
)

var uninstallValues = []string{
	ValueDisplayName,
	ValueDisplayVersion,
	ValuePublisher,
	ValueInstallLocation,
	ValueInstallDate,
}

// RegistryReader enumerates the subkeys of an HKLM Uninstall key. Each
// returned map holds the string values that exist on one subkey; absent
// values are left out.
type RegistryReader interface {
	UninstallEntries(path string) ([]map[string]string, error)
}
