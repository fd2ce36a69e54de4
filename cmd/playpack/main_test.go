package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playpack/internal/pipeline"
)

// stubBinaries writes fake ffmpeg/ffprobe executables and prepends them to
// PATH. The ffprobe stub reports an MP3 stream at the given bitrate; the
// ffmpeg stub writes a token file to its final argument.
func stubBinaries(t *testing.T, probeKbps int) {
	t.Helper()

	binDir := t.TempDir()

	probeJSON := fmt.Sprintf(`{"streams":[{"codec_type":"audio","codec_name":"mp3","bit_rate":"%d"}],"format":{"format_name":"mp3","bit_rate":"%d"}}`,
		probeKbps*1000, probeKbps*1000)
	ffprobe := "#!/bin/sh\ncat <<'EOF'\n" + probeJSON + "\nEOF\n"
	if err := os.WriteFile(filepath.Join(binDir, "ffprobe"), []byte(ffprobe), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	ffmpeg := "#!/bin/sh\nfor last; do :; done\nprintf 'mp3' > \"$last\"\n"
	if err := os.WriteFile(filepath.Join(binDir, "ffmpeg"), []byte(ffmpeg), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// testConfigFile writes a config pointing at fresh temp directories and
// returns its path plus the directories.
func testConfigFile(t *testing.T) (configPath, musicDir, playlistDir, outputDir string) {
	t.Helper()

	base := t.TempDir()
	musicDir = filepath.Join(base, "music")
	playlistDir = filepath.Join(base, "playlists")
	outputDir = filepath.Join(base, "device")
	for _, dir := range []string{musicDir, playlistDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`
[paths]
music_dir = %q
playlist_dir = %q
output_dir = %q
log_dir = %q

[transcode]
workers = 1
`, musicDir, playlistDir, outputDir, filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, musicDir, playlistDir, outputDir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestConvertCommandEndToEnd(t *testing.T) {
	stubBinaries(t, 192)
	configPath, musicDir, playlistDir, outputDir := testConfigFile(t)

	writeBytes := func(path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	writeBytes(filepath.Join(musicDir, "Album", "Song.mp3"), "fake mp3 bytes")
	writeBytes(filepath.Join(musicDir, "Album", "Other.flac"), "fake flac bytes")
	writeBytes(filepath.Join(playlistDir, "road.m3u"), strings.Join([]string{
		"# favourites",
		"Album/Song.mp3",
		"Album/Other.flac",
		"Album/Gone.mp3",
	}, "\n"))

	out, err := runCommand(t, "convert", "--config", configPath, "--no-progress")
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "road.m3u8"))
	if err != nil {
		t.Fatalf("read output playlist: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"Music/Album/Song.mp3", "Music/Album/Other.mp3"}
	if len(lines) != len(want) {
		t.Fatalf("playlist lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("playlist lines = %q, want %q", lines, want)
		}
	}

	for _, rel := range []string{"Album/Song.mp3", "Album/Other.mp3"} {
		if _, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("destination %s missing: %v", rel, err)
		}
	}

	if !strings.Contains(out, "road.m3u") {
		t.Fatalf("summary missing playlist name:\n%s", out)
	}
}

func TestConvertCommandIdempotent(t *testing.T) {
	stubBinaries(t, 192)
	configPath, musicDir, playlistDir, outputDir := testConfigFile(t)

	source := filepath.Join(musicDir, "Album", "Song.mp3")
	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(source, []byte("fake mp3 bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	playlistPath := filepath.Join(playlistDir, "short.m3u8")
	if err := os.WriteFile(playlistPath, []byte("Album/Song.mp3\n"), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	if out, err := runCommand(t, "convert", playlistPath, "--config", configPath, "--no-progress"); err != nil {
		t.Fatalf("first run failed: %v\n%s", err, out)
	}
	first, err := os.ReadFile(filepath.Join(outputDir, "short.m3u8"))
	if err != nil {
		t.Fatalf("read first playlist: %v", err)
	}

	out, err := runCommand(t, "convert", playlistPath, "--config", configPath, "--no-progress")
	if err != nil {
		t.Fatalf("second run failed: %v\n%s", err, out)
	}
	second, err := os.ReadFile(filepath.Join(outputDir, "short.m3u8"))
	if err != nil {
		t.Fatalf("read second playlist: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("playlists differ between runs:\n%s\n%s", first, second)
	}
}

func TestConvertCommandFailsWithoutPlaylists(t *testing.T) {
	stubBinaries(t, 192)
	configPath, _, _, _ := testConfigFile(t)

	if _, err := runCommand(t, "convert", "--config", configPath, "--no-progress"); err == nil {
		t.Fatal("expected error with no playlists present")
	}
}

func TestPlanCommandWritesNothing(t *testing.T) {
	stubBinaries(t, 192)
	configPath, musicDir, playlistDir, outputDir := testConfigFile(t)

	source := filepath.Join(musicDir, "Album", "Song.mp3")
	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(filepath.Join(playlistDir, "p.m3u"), []byte("Album/Song.mp3\nAlbum/Nope.mp3\n"), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	out, err := runCommand(t, "plan", "--config", configPath)
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "copy") || !strings.Contains(out, "resolution_failure") {
		t.Fatalf("plan output missing actions:\n%s", out)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("plan wrote into output root: %v", entries)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if out, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite failed: %v\n%s", err, out)
	}

	t.Setenv("HOME", t.TempDir())
	show, err := runCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, show)
	}
	if !strings.Contains(show, "music_dir") {
		t.Fatalf("config show output missing fields:\n%s", show)
	}
}

func TestRenderRowsNumericAlignment(t *testing.T) {
	rows := [][]string{
		{"1", "Album/Song.mp3"},
		{"12", "Album/Other.mp3"},
	}
	if !columnIsNumeric(rows, 0) {
		t.Fatal("line column should be detected as numeric")
	}
	if columnIsNumeric(rows, 1) {
		t.Fatal("reference column must stay left-aligned")
	}
	if columnIsNumeric(nil, 0) {
		t.Fatal("empty tables have no numeric columns")
	}

	out := renderRows([]string{"Line", "Reference"}, rows)
	if !strings.Contains(out, "Album/Song.mp3") || !strings.Contains(out, "Line") {
		t.Fatalf("rendered table missing content:\n%s", out)
	}
}

func TestRenderSummaryListsEveryCounter(t *testing.T) {
	out := renderSummary(pipeline.Summary{Total: 3, Done: 2, Transcoded: 1, Copied: 1, Skipped: 1})
	for _, label := range []string{"Entries", "Done", "Copied", "Transcoded", "Reused", "Skipped", "Failed", "Warnings"} {
		if !strings.Contains(out, label) {
			t.Fatalf("summary missing %q:\n%s", label, out)
		}
	}
}

func TestDepsCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	stubBinaries(t, 192)

	out, err := runCommand(t, "deps")
	if err != nil {
		t.Fatalf("deps failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "FFmpeg") || !strings.Contains(out, "ok") {
		t.Fatalf("deps output unexpected:\n%s", out)
	}
}

func TestDepsCommandMissingBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())

	if _, err := runCommand(t, "deps"); err == nil {
		t.Fatal("expected error when binaries are missing")
	}
}
