// Package ffaudio inspects audio files with ffprobe. The planner uses the
// reported codec and bitrate to decide between copying and transcoding.
package ffaudio
