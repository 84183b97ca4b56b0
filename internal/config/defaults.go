package config

const (
	defaultScratchDir      = "~/.cache/podjoin/scratch"
	defaultLogDir          = "~/.local/share/podjoin/logs"
	defaultEngineBinary    = "ffmpeg"
	defaultAnalysisTargetI = -16.0
	defaultTruePeak        = -1.5
	defaultLoudnessRange   = 11.0
	defaultSampleRate      = 48000
	defaultChannels        = 2
	defaultMP3Quality      = 2
	defaultNormalizeJobs   = 1
	defaultNotifyTimeout   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// maxNormalizeJobs caps normalization concurrency at the number of distinct
// source roles; more workers than roles buys nothing.
const maxNormalizeJobs = 6

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Engine: Engine{
			Binary: defaultEngineBinary,
		},
		Loudness: Loudness{
			AnalysisTargetI: defaultAnalysisTargetI,
			TruePeak:        defaultTruePeak,
			LoudnessRange:   defaultLoudnessRange,
			SampleRate:      defaultSampleRate,
			Channels:        defaultChannels,
		},
		Export: Export{
			MP3Quality: defaultMP3Quality,
		},
		Workflow: Workflow{
			NormalizeJobs: defaultNormalizeJobs,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
