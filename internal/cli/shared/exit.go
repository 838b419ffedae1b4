package shared

// Process exit codes.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitConfigError   = 2
	ExitTargetError   = 3
	ExitProcessFailed = 4
)
