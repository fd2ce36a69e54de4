package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeTranscode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
		return fmt.Errorf("paths.music_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PlaylistDir) == "" {
		c.Paths.PlaylistDir = c.Paths.MusicDir
	}
	if c.Paths.PlaylistDir, err = expandPath(c.Paths.PlaylistDir); err != nil {
		return fmt.Errorf("paths.playlist_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.RootPrefix = strings.Trim(strings.TrimSpace(c.Device.RootPrefix), "/")
	c.Device.PathSeparator = strings.TrimSpace(c.Device.PathSeparator)
	if c.Device.PathSeparator == "" {
		c.Device.PathSeparator = defaultPathSeparator
	}
	if c.Device.ForbiddenChars == "" {
		c.Device.ForbiddenChars = defaultForbiddenChars
	}
	if c.Device.ReplacementChar == "" {
		c.Device.ReplacementChar = defaultReplacementChar
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.Bitrate = strings.TrimSpace(c.Transcode.Bitrate)
	if c.Transcode.Bitrate == "" {
		c.Transcode.Bitrate = defaultBitrate
	}
	if c.Transcode.Workers <= 0 {
		c.Transcode.Workers = defaultWorkers
	}
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
