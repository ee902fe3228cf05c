package config

const (
	defaultVoicesDir     = "./generated/voices"
	defaultFramesDir     = "./generated/tmp"
	defaultClipExtension = ".mp3"
	defaultHistoryFile   = "history.db"

	defaultRate         = 20
	defaultBars         = 50
	defaultSpeed        = 4
	defaultTime         = 0.4
	defaultOversample   = 3
	defaultFGColor      = "0.2,0.2,0.2"
	defaultFGColor2     = "0.5,0.3,0.6"
	defaultBGColor      = "1,1,1"
	defaultWidth        = 400
	defaultHeight       = 400
	defaultWorkers      = 1
	defaultPadRatio     = 0.1
	defaultReleaseAlpha = 0.8
	defaultReleaseScale = 1.0

	BackendFFmpeg        = "ffmpeg"
	BackendNative        = "native"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VoicesDir: defaultVoicesDir,
			FramesDir: defaultFramesDir,
			StateDir:  defaultStateDir(),
		},
		Render: Render{
			Rate:         defaultRate,
			Bars:         defaultBars,
			Speed:        defaultSpeed,
			Time:         defaultTime,
			Oversample:   defaultOversample,
			FGColor:      defaultFGColor,
			FGColor2:     defaultFGColor2,
			BGColor:      defaultBGColor,
			Width:        defaultWidth,
			Height:       defaultHeight,
			Workers:      defaultWorkers,
			PadRatio:     defaultPadRatio,
			ReleaseAlpha: defaultReleaseAlpha,
			ReleaseScale: defaultReleaseScale,
		},
		Decoder: Decoder{
			Backend: BackendFFmpeg,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
