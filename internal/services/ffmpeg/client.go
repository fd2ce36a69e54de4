package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"playpack/internal/services"
)

var commandContext = exec.CommandContext

// Transcoder converts a source audio file into an MP3 at a fixed bitrate.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI invokes the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcode re-encodes inputPath to MP3 at the requested bitrate. The output
// is written to a temporary sibling first and renamed into place so an
// interrupted run never leaves a plausible-looking partial destination.
func (c *CLI) Transcode(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	if bitrateKbps <= 0 {
		return fmt.Errorf("invalid bitrate %dk", bitrateKbps)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	partial := outputPath + ".part"
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "mp3",
		partial,
	}
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(partial)
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "transcode "+inputPath, tail(string(output)), err)
	}

	if err := os.Rename(partial, outputPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize transcode output: %w", err)
	}
	return nil
}

// tail keeps the last few lines of ffmpeg's output, which is where the
// actionable error message lives.
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	const keep = 4
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}

var _ Transcoder = (*CLI)(nil)
