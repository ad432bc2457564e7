package config

const (
	defaultDataDir       = "~/.local/share/canvass"
	defaultLogDir        = "~/.local/share/canvass/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLocalAreaCode = "671"
	defaultMaxRows       = 5000
	defaultMinBirthYear  = 1900
	defaultPreviewRows   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Campaign: Campaign{
			LocalAreaCode: defaultLocalAreaCode,
		},
		Ingest: Ingest{
			MaxRows:      defaultMaxRows,
			MinBirthYear: defaultMinBirthYear,
			PreviewRows:  defaultPreviewRows,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
