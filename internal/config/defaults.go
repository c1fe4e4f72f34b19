package config

// Default configuration values.
const (
	DefaultLogicFile    = "logic.yaml"
	DefaultFunctionsDir = "functions"
	DefaultTable        = "readings"
	DefaultOutput       = "auto"
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultStatePath    = ".vcol/state.db"
)
