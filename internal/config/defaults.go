package config

const (
	defaultStateDirFallback    = "~/.local/state/webvid"
	defaultLogDir              = "~/.local/state/webvid/logs"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultFFmpegLogLevel      = "error"
	defaultStoryboardQuality   = 75
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHistoryEnabled      = true
	defaultPipelineProbeSource = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
			LogDir:   defaultLogDir,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			LogLevel:      defaultFFmpegLogLevel,
		},
		Pipeline: Pipeline{
			ProbeSource: defaultPipelineProbeSource,
		},
		Storyboard: Storyboard{
			JPEGQuality: defaultStoryboardQuality,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
