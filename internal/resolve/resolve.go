package resolve

import (
	"fmt"
	"path"
	"strings"

	"github.com/hbollon/go-edlib"

	"playpack/internal/index"
	"playpack/internal/services"
)

// ambiguousSet holds the characters known to be replaced by some filesystem
// along the library's journey between operating systems. The configured
// replacement character is added per-resolver because the mangled side of a
// substitution is indistinguishable from a literal replacement character.
const ambiguousSet = `?":<>|*`

// wildcard marks a collapsed ambiguous region inside a reduced key. NUL can
// never appear in a real path component.
const wildcard = '\x00'

// NotFoundError reports a reference with no plausible match in the index.
type NotFoundError struct {
	Reference string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no file matches reference %q", e.Reference)
}

func (e *NotFoundError) Unwrap() error { return services.ErrNotFound }

// AmbiguousError reports a reference with multiple equally plausible matches.
// Candidates carries every tied match so callers can surface them.
type AmbiguousError struct {
	Reference  string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("reference %q matches %d files equally: %s",
		e.Reference, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Unwrap() error { return services.ErrAmbiguous }

// Resolver matches playlist references against a filesystem snapshot.
type Resolver struct {
	ambiguous map[rune]struct{}
}

// New builds a resolver whose ambiguous set is the known mangled characters
// plus the configured replacement character.
func New(replacement rune) *Resolver {
	set := make(map[rune]struct{}, len(ambiguousSet)+1)
	for _, r := range ambiguousSet {
		set[r] = struct{}{}
	}
	if replacement != 0 {
		set[replacement] = struct{}{}
	}
	return &Resolver{ambiguous: set}
}

// Resolve maps a raw playlist reference to a relative path that exists in the
// snapshot. Absolute references are rebased against the snapshot root first.
// The fast path is an exact match after separator and Unicode normalization. Otherwise candidates at the same directory depth are
// compared by reduced key; a unique match wins, distance breaks ties among
// several, and an exact tie is reported as ambiguous rather than guessed at.
func (r *Resolver) Resolve(ref string, snap *index.Snapshot) (string, error) {
	normalized := relativeToRoot(index.NormalizeKey(ref), snap.Root())
	if normalized == "" {
		return "", &NotFoundError{Reference: ref}
	}

	if stored, ok := snap.Lookup(normalized); ok {
		return stored, nil
	}

	refKey := r.reduce(normalized)
	depth := strings.Count(normalized, "/") + 1

	var matches []string
	for _, candidate := range snap.AtDepth(depth) {
		if r.reduce(index.NormalizeKey(candidate)) == refKey {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Reference: ref}
	case 1:
		return matches[0], nil
	}

	best, tied := closest(normalized, matches)
	if len(tied) > 1 {
		return "", &AmbiguousError{Reference: ref, Candidates: tied}
	}
	return best, nil
}

// relativeToRoot rewrites an absolute reference as a path relative to the
// library root. References already under the root lose the root prefix.
// Absolute references from another machine (a different mount point, or a
// Windows drive letter) keep their trailing components; when the first
// remaining component names the root directory itself it is dropped too, so
// "C:\Music\Artist\Song.mp3" lines up with a library rooted at ".../Music".
// Relative references pass through untouched.
func relativeToRoot(normalized, root string) string {
	rootKey := strings.TrimSuffix(index.NormalizeKey(root), "/")
	if rootKey != "" && rootKey != "." {
		if rest, ok := strings.CutPrefix(normalized, rootKey+"/"); ok {
			return rest
		}
	}

	absolute := false
	if hasDrivePrefix(normalized) {
		normalized = normalized[3:]
		absolute = true
	}
	if rest, ok := strings.CutPrefix(normalized, "/"); ok {
		normalized = rest
		absolute = true
	}
	if !absolute {
		return normalized
	}
	if base := path.Base(rootKey); base != "" && base != "." && base != "/" {
		if rest, ok := strings.CutPrefix(normalized, base+"/"); ok {
			return rest
		}
	}
	return normalized
}

func hasDrivePrefix(key string) bool {
	if len(key) < 3 || key[1] != ':' || key[2] != '/' {
		return false
	}
	c := key[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// reduce collapses every ambiguous character into a single wildcard marker.
// Runs of ambiguous characters collapse together: a filesystem that mangles
// "??" produces "__", and both reduce to one marker.
func (r *Resolver) reduce(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	inRun := false
	for _, c := range key {
		if _, ok := r.ambiguous[c]; ok {
			if !inRun {
				b.WriteRune(wildcard)
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(c)
	}
	return b.String()
}

// closest returns the candidate with the smallest edit distance to the
// reference, plus the full set of candidates tied at that distance.
func closest(ref string, candidates []string) (string, []string) {
	bestDistance := -1
	var tied []string
	for _, candidate := range candidates {
		d := edlib.LevenshteinDistance(ref, candidate)
		switch {
		case bestDistance < 0 || d < bestDistance:
			bestDistance = d
			tied = append(tied[:0], candidate)
		case d == bestDistance:
			tied = append(tied, candidate)
		}
	}
	return tied[0], tied
}
