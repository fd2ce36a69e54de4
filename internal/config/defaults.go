package config

const (
	defaultMusicDir        = "~/Music"
	defaultPlaylistDir     = "~/Music/Playlists"
	defaultOutputDir       = "~/playpack/output"
	defaultLogDir          = "~/.local/share/playpack/logs"
	defaultRootPrefix      = "Music"
	defaultPathSeparator   = "/"
	defaultForbiddenChars  = `<>":|?*`
	defaultReplacementChar = "_"
	defaultBitrate         = "320k"
	defaultWorkers         = 4
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MusicDir:    defaultMusicDir,
			PlaylistDir: defaultPlaylistDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
		},
		Device: Device{
			RootPrefix:      defaultRootPrefix,
			PathSeparator:   defaultPathSeparator,
			ForbiddenChars:  defaultForbiddenChars,
			ReplacementChar: defaultReplacementChar,
		},
		Transcode: Transcode{
			Bitrate:       defaultBitrate,
			Workers:       defaultWorkers,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
