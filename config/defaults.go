package config

const (
	defaultConfigFile   = "episodedl.toml"
	defaultOutputDir    = "downloads"
	defaultPrefetch     = 1
	defaultFFmpegBinary = "ffmpeg"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"

	envURL = "EPISODEDL_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		OutputDir:    defaultOutputDir,
		Prefetch:     defaultPrefetch,
		FFmpegBinary: defaultFFmpegBinary,
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
