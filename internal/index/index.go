package index

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Snapshot is an immutable view of the files under a source root. All paths
// are stored relative to the root with forward-slash separators.
type Snapshot struct {
	root    string
	files   []string
	exact   map[string]string // normalized key -> stored relative path
	byDepth map[int][]string  // component count -> stored relative paths
}

// Build walks the source root and records every regular file. Directories
// that cannot be read surface as errors; the walk does not follow symlinks.
func Build(root string) (*Snapshot, error) {
	cleaned := filepath.Clean(root)
	var files []string
	err := filepath.WalkDir(cleaned, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(cleaned, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source root %s: %w", cleaned, err)
	}
	return NewSnapshot(cleaned, files), nil
}

// NewSnapshot constructs a snapshot from pre-listed relative paths. Tests and
// the resolver use this to work against synthetic trees without disk I/O.
func NewSnapshot(root string, relPaths []string) *Snapshot {
	snap := &Snapshot{
		root:    root,
		files:   make([]string, 0, len(relPaths)),
		exact:   make(map[string]string, len(relPaths)),
		byDepth: make(map[int][]string),
	}
	for _, rel := range relPaths {
		stored := filepath.ToSlash(rel)
		snap.files = append(snap.files, stored)
		snap.exact[NormalizeKey(stored)] = stored
		depth := strings.Count(stored, "/") + 1
		snap.byDepth[depth] = append(snap.byDepth[depth], stored)
	}
	return snap
}

// Root returns the absolute source root the snapshot was built from.
func (s *Snapshot) Root() string {
	return s.root
}

// Len returns the number of indexed files.
func (s *Snapshot) Len() int {
	return len(s.files)
}

// Lookup returns the stored relative path for a reference that matches the
// index exactly after separator and Unicode normalization.
func (s *Snapshot) Lookup(rel string) (string, bool) {
	stored, ok := s.exact[NormalizeKey(rel)]
	return stored, ok
}

// AtDepth returns the indexed relative paths with the given number of path
// components. Callers must not modify the returned slice.
func (s *Snapshot) AtDepth(depth int) []string {
	return s.byDepth[depth]
}

// Abs joins a stored relative path back onto the source root.
func (s *Snapshot) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// NormalizeKey canonicalizes a path reference for exact-match comparison:
// backslashes become forward slashes, redundant separators collapse, and the
// text is NFC-normalized so composed and decomposed Unicode spellings of the
// same name compare equal.
func NormalizeKey(ref string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/")
	cleaned = strings.TrimPrefix(cleaned, "./")
	for strings.Contains(cleaned, "//") {
		cleaned = strings.ReplaceAll(cleaned, "//", "/")
	}
	return norm.NFC.String(cleaned)
}
