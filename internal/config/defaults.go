package config

const (
	defaultBaseDir     = "~/.local/share/triage/storage"
	defaultLogDir      = "~/.local/share/triage/logs"
	defaultLedgerDir   = "~/.local/share/triage"
	defaultMaxAttempts = 5
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir:   defaultBaseDir,
			LogDir:    defaultLogDir,
			LedgerDir: defaultLedgerDir,
		},
		Engine: Engine{
			Workers:     0, // host-sized pool
			MaxAttempts: defaultMaxAttempts,
			Parallel:    true,
			Strict:      false,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
