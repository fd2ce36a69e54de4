// Package ffmpeg wraps the external ffmpeg binary behind a narrow Transcoder
// interface so the pipeline can be tested without real audio files.
package ffmpeg
