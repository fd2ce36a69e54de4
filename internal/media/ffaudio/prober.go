package ffaudio

import "context"

// Prober binds Inspect to a configured ffprobe binary.
type Prober struct {
	binary string
}

// NewProber returns a Prober that shells out to the given ffprobe binary.
func NewProber(binary string) Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return Prober{binary: binary}
}

func (p Prober) Inspect(ctx context.Context, path string) (Info, error) {
	return Inspect(ctx, p.binary, path)
}
