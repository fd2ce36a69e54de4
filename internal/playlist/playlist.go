package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one path reference from a playlist, in authored order. Raw is the
// reference exactly as read, after whitespace trimming.
type Entry struct {
	Raw  string
	Line int
}

// Parse reads playlist entries from r, skipping blanks and comments while
// preserving order. Line numbers are 1-based and refer to the source file.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		// Comments and EXTM3U directives are whole lines; a "#" inside a
		// path is a legitimate filename character.
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		entries = append(entries, Entry{Raw: text, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	return entries, nil
}

// ParseFile reads playlist entries from the file at path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist %s: %w", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// Discover lists the playlist files directly inside dir, sorted by name.
// Only *.m3u and *.m3u8 are considered; subdirectories are not searched.
func Discover(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list playlists in %s: %w", dir, err)
	}
	var found []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(de.Name())) {
		case ".m3u", ".m3u8":
			found = append(found, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

// OutputName derives the rewritten playlist's filename from the source
// playlist: same base name, .m3u8 extension.
func OutputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".m3u8"
}

// Format describes how entries are written for the target device.
type Format struct {
	// DeviceRoot is the path prefix the device expects at playback time,
	// for example "Music/".
	DeviceRoot string
	// Separator is the path separator the device requires. Defaults to "/".
	Separator string
}

// Line renders one device playlist line for a slash-separated relative path.
func (f Format) Line(rel string) string {
	sep := f.Separator
	if sep == "" {
		sep = "/"
	}
	root := f.DeviceRoot
	if root != "" && !strings.HasSuffix(root, "/") && !strings.HasSuffix(root, "\\") {
		root += "/"
	}
	joined := root + rel
	if sep != "/" {
		joined = strings.ReplaceAll(joined, "/", sep)
	}
	return joined
}

// Write emits one line per relative path, in the given order, using the
// device format. The caller has already dropped unresolved entries.
func Write(w io.Writer, rels []string, format Format) error {
	bw := bufio.NewWriter(w)
	for _, rel := range rels {
		if _, err := bw.WriteString(format.Line(rel)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the device playlist to path, creating parent directories
// as needed. The content lands in a temporary sibling first and is renamed
// into place, so an interrupted run never leaves a truncated playlist.
func WriteFile(path string, rels []string, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create playlist directory: %w", err)
	}
	partial := path + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create playlist %s: %w", partial, err)
	}
	if err := Write(file, rels, format); err != nil {
		_ = file.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("write playlist %s: %w", partial, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("close playlist %s: %w", partial, err)
	}
	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize playlist %s: %w", path, err)
	}
	return nil
}
