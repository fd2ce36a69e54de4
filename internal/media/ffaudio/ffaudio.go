package ffaudio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"playpack/internal/services"
)

var commandContext = exec.CommandContext

// Info summarizes the first audio stream of a media file.
type Info struct {
	CodecName  string
	FormatName string
	// BitRate is the audio stream bitrate in bits per second, falling back
	// to the container bitrate when the stream does not report one.
	BitRate    int64
	SampleRate int
	Channels   int
	Duration   float64
}

// BitRateKbps returns the bitrate in kilobits per second, rounded down.
func (i Info) BitRateKbps() int {
	if i.BitRate <= 0 {
		return 0
	}
	return int(i.BitRate / 1000)
}

// IsMP3 reports whether the audio stream is MP3-encoded.
func (i Info) IsMP3() bool {
	return strings.EqualFold(i.CodecName, "mp3")
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	BitRate    string `json:"bit_rate"`
	Duration   string `json:"duration"`
}

// Inspect executes ffprobe against the provided path and extracts the first
// audio stream. Files without an audio stream yield an error.
func Inspect(ctx context.Context, binary, path string) (Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect "+path, strings.TrimSpace(string(output)), err)
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Info{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	for _, stream := range result.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		info := Info{
			CodecName:  stream.CodecName,
			FormatName: result.Format.FormatName,
			BitRate:    parseInt64(stream.BitRate),
			SampleRate: int(parseInt64(stream.SampleRate)),
			Channels:   stream.Channels,
			Duration:   parseFloat(stream.Duration),
		}
		if info.BitRate <= 0 {
			info.BitRate = parseInt64(result.Format.BitRate)
		}
		if info.Duration <= 0 {
			info.Duration = parseFloat(result.Format.Duration)
		}
		return info, nil
	}
	return Info{}, fmt.Errorf("ffprobe inspect %s: no audio stream", path)
}

func parseInt64(value string) int64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
