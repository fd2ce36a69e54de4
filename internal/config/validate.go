package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minBitrateKbps = 32
	maxBitrateKbps = 320
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.MusicDir == "" {
		return errors.New("paths.music_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.MusicDir {
		return errors.New("paths.output_dir must differ from paths.music_dir")
	}
	return nil
}

func (c *Config) validateDevice() error {
	if c.Device.PathSeparator != "/" && c.Device.PathSeparator != "\\" {
		return fmt.Errorf("device.path_separator must be %q or %q", "/", `\`)
	}
	if utf8.RuneCountInString(c.Device.ReplacementChar) != 1 {
		return errors.New("device.replacement_char must be a single character")
	}
	replacement := c.ReplacementRune()
	if strings.ContainsRune(c.Device.ForbiddenChars, replacement) {
		return fmt.Errorf("device.replacement_char %q is itself forbidden", replacement)
	}
	if replacement == '/' || replacement == '\\' {
		return errors.New("device.replacement_char must not be a path separator")
	}
	if replacement < 0x20 || replacement == 0x7f {
		return errors.New("device.replacement_char must be printable")
	}
	for _, r := range c.Device.RootPrefix {
		if strings.ContainsRune(c.Device.ForbiddenChars, r) {
			return fmt.Errorf("device.root_prefix contains forbidden character %q", r)
		}
	}
	return nil
}

func (c *Config) validateTranscode() error {
	kbps, err := c.BitrateKbps()
	if err != nil {
		return err
	}
	if kbps < minBitrateKbps || kbps > maxBitrateKbps {
		return fmt.Errorf("transcode.bitrate must be between %dk and %dk", minBitrateKbps, maxBitrateKbps)
	}
	if c.Transcode.Workers < 1 || c.Transcode.Workers > 64 {
		return errors.New("transcode.workers must be between 1 and 64")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
