package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"playpack/internal/media/ffaudio"
	"playpack/internal/sanitize"
	"playpack/internal/state"
)

type fakeProber struct {
	info ffaudio.Info
	err  error
}

func (f fakeProber) Inspect(ctx context.Context, path string) (ffaudio.Info, error) {
	return f.info, f.err
}

func writeSource(t *testing.T, root, rel string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

func TestPlanCopyForCompliantMP3(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Artist/Song.mp3")

	prober := fakeProber{info: ffaudio.Info{CodecName: "mp3", BitRate: 192_000}}
	planner := New(outputRoot, 320, sanitize.Default(), false, prober, nil)

	p, err := planner.Plan(context.Background(), sourceRoot, "Artist/Song.mp3")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Action != ActionCopy {
		t.Fatalf("action = %s, want copy for 192k mp3 under 320k target", p.Action)
	}
}

func TestPlanTranscodeForFLAC(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Artist/Song.flac")

	prober := fakeProber{info: ffaudio.Info{CodecName: "flac", BitRate: 941_000}}
	planner := New(outputRoot, 320, sanitize.Default(), false, prober, nil)

	p, err := planner.Plan(context.Background(), sourceRoot, "Artist/Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Action != ActionTranscode {
		t.Fatalf("action = %s, want transcode for flac", p.Action)
	}
	if p.BitrateKbps != 320 {
		t.Fatalf("bitrate = %d", p.BitrateKbps)
	}
}

func TestPlanTranscodeForOverBitrateMP3(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Song.mp3")

	prober := fakeProber{info: ffaudio.Info{CodecName: "mp3", BitRate: 320_000}}
	planner := New(outputRoot, 256, sanitize.Default(), false, prober, nil)

	p, err := planner.Plan(context.Background(), sourceRoot, "Song.mp3")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Action != ActionTranscode {
		t.Fatalf("action = %s, want transcode for 320k mp3 over 256k target", p.Action)
	}
}

func TestPlanProbeFailureFallsBackToTranscode(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Song.mp3")

	prober := fakeProber{err: errors.New("unreadable")}
	planner := New(outputRoot, 320, sanitize.Default(), false, prober, nil)

	p, err := planner.Plan(context.Background(), sourceRoot, "Song.mp3")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Action != ActionTranscode {
		t.Fatalf("action = %s, want transcode when probe fails", p.Action)
	}
}

func TestPlanDestinationSanitizedAndNormalized(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Artist_/Album_ Live/01 - Song_.flac")

	planner := New(outputRoot, 320, sanitize.Default(), false, fakeProber{}, nil)
	p, err := planner.Plan(context.Background(), sourceRoot, "Artist_/Album_ Live/01 - Song_.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.DestRel != "Artist_/Album_ Live/01 - Song_.mp3" {
		t.Fatalf("DestRel = %q", p.DestRel)
	}
	if p.DestAbs != filepath.Join(outputRoot, "Artist_", "Album_ Live", "01 - Song_.mp3") {
		t.Fatalf("DestAbs = %q", p.DestAbs)
	}
}

func TestPlanSanitizesRawCharacters(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	// A source tree on a permissive filesystem can hold characters the
	// device forbids.
	writeSource(t, sourceRoot, "Who? The Band/Song?.flac")

	planner := New(outputRoot, 320, sanitize.Default(), false, fakeProber{}, nil)
	p, err := planner.Plan(context.Background(), sourceRoot, "Who? The Band/Song?.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.DestRel != "Who_ The Band/Song_.mp3" {
		t.Fatalf("DestRel = %q", p.DestRel)
	}
}

func TestPlanStripsLeadingTrackNumbers(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Album/07 - Song.flac")
	writeSource(t, sourceRoot, "Album/Not A Number - Song.flac")

	planner := New(outputRoot, 320, sanitize.Default(), true, fakeProber{}, nil)

	p, err := planner.Plan(context.Background(), sourceRoot, "Album/07 - Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.DestRel != "Album/Song.mp3" {
		t.Fatalf("DestRel = %q, want track number stripped", p.DestRel)
	}

	p, err = planner.Plan(context.Background(), sourceRoot, "Album/Not A Number - Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.DestRel != "Album/Not A Number - Song.mp3" {
		t.Fatalf("DestRel = %q, non-numeric prefix must stay", p.DestRel)
	}
}

func TestPlanSatisfiedViaStore(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Song.flac")

	store, err := state.Open(outputRoot)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	defer store.Close()

	planner := New(outputRoot, 320, sanitize.Default(), false, fakeProber{}, store)
	ctx := context.Background()

	first, err := planner.Plan(ctx, sourceRoot, "Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if first.Satisfied {
		t.Fatal("fresh plan must not be satisfied")
	}

	// Simulate the execution step: destination materialized, record stored.
	if err := os.WriteFile(first.DestAbs, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = store.Put(ctx, state.Record{
		DestPath:      first.DestRel,
		SourcePath:    first.SourceAbs,
		SourceSize:    first.SourceSize,
		SourceMtimeNS: first.SourceMtimeNS,
		Action:        string(first.Action),
		BitrateKbps:   first.BitrateKbps,
		RunID:         "run-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := planner.Plan(ctx, sourceRoot, "Song.flac")
	if err != nil {
		t.Fatalf("second Plan: %v", err)
	}
	if !second.Satisfied {
		t.Fatal("unchanged source with recorded destination must be satisfied")
	}

	// A different target bitrate invalidates the record.
	retarget := New(outputRoot, 192, sanitize.Default(), false, fakeProber{}, store)
	third, err := retarget.Plan(ctx, sourceRoot, "Song.flac")
	if err != nil {
		t.Fatalf("third Plan: %v", err)
	}
	if third.Satisfied {
		t.Fatal("bitrate change must invalidate the skip rule")
	}
}

func TestPlanSatisfiedRequiresDestinationOnDisk(t *testing.T) {
	sourceRoot := t.TempDir()
	outputRoot := t.TempDir()
	writeSource(t, sourceRoot, "Song.flac")

	store, err := state.Open(outputRoot)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	defer store.Close()

	planner := New(outputRoot, 320, sanitize.Default(), false, fakeProber{}, store)
	ctx := context.Background()

	p, err := planner.Plan(ctx, sourceRoot, "Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// Record exists but the destination file does not.
	err = store.Put(ctx, state.Record{
		DestPath:      p.DestRel,
		SourceSize:    p.SourceSize,
		SourceMtimeNS: p.SourceMtimeNS,
		Action:        string(p.Action),
		BitrateKbps:   p.BitrateKbps,
	})
	if err != nil {
		t.Fatal(err)
	}

	again, err := planner.Plan(ctx, sourceRoot, "Song.flac")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if again.Satisfied {
		t.Fatal("missing destination file must not be satisfied")
	}
}
