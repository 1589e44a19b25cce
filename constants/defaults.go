// Package constants defines application-wide defaults, form field keys and error keys.
package constants

// Default Values
const (
	// DefaultPort is the default HTTP server port
	DefaultPort = "50000"

	// DefaultLogLevel is the default logging level
	DefaultLogLevel = "info"

	// DefaultLanguage is the default application language
	DefaultLanguage = "en"

	// DefaultStorePath is the default location of the configuration entries file
	DefaultStorePath = "entries.json"

	// DefaultWorkers bounds how many blocking calls may be offloaded at once
	DefaultWorkers = 4

	// AppVersion is the current application version
	AppVersion = "0.1.0"
)

// Setup form defaults, shown on first display only.
const (
	DefaultDeviceName = "OMV"
	DefaultHost       = "10.0.0.1"
	DefaultUsername   = "admin"
	DefaultSSL        = false
	DefaultSSLVerify  = true
)

// Options defaults, used when an entry has no stored value.
const (
	// DefaultScanInterval is the polling period in seconds
	DefaultScanInterval = 60
	DefaultSmartDisable = false
)

// Timeouts
const (
	// DefaultConnectTimeout applies to a single connectivity probe
	DefaultConnectTimeout = 10
)
