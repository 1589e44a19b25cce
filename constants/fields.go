package constants

// Configuration record keys.
const (
	ConfName      = "display_name"
	ConfHost      = "host"
	ConfUsername  = "username"
	ConfPassword  = "password"
	ConfSSL       = "use_ssl"
	ConfVerifySSL = "verify_ssl"
)

// Options record keys.
const (
	ConfScanInterval = "scan_interval"
	ConfSmartDisable = "smart_disable"
)

// Flow step identifiers.
const (
	StepUser         = "user"
	StepImport       = "import"
	StepInit         = "init"
	StepBasicOptions = "basic_options"
)

// Field-level error kinds.
const (
	ErrNameExists = "name_exists"
)
