package config

const (
	defaultKeyName    = "crypt.key"
	defaultIterations = 1
	defaultIOMode     = "a"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// DefaultIgnoreDirs lists the directory fragments skipped when no ignore list
// is supplied: version control, editor, virtualenv, dependency and cache dirs.
var DefaultIgnoreDirs = []string{".git", ".idea", ".vscode", ".venv", "node_modules", "__pycache__"}

// Default returns a Config populated with tool defaults.
func Default() Config {
	ignore := make([]string, len(DefaultIgnoreDirs))
	copy(ignore, DefaultIgnoreDirs)
	return Config{
		Scan: Scan{
			IgnoreDirs: ignore,
		},
		Readers: Readers{
			Workers: 0,
		},
		Crypt: Crypt{
			KeyName:    defaultKeyName,
			Iterations: defaultIterations,
		},
		IO: IO{
			Mode: defaultIOMode,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
