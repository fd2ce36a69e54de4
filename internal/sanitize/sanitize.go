package sanitize

import (
	"strings"
)

// DefaultForbidden is the punctuation set documented as unsafe on the device
// filesystem. Control characters are always replaced regardless of rules.
const DefaultForbidden = `<>":|?*`

// DefaultReplacement substitutes forbidden characters when no explicit
// replacement is configured.
const DefaultReplacement = '_'

// Rules describes a sanitization policy: which characters are forbidden and
// what they are replaced with. Rules values are immutable after construction
// and safe for concurrent use.
type Rules struct {
	forbidden   map[rune]struct{}
	replacement rune
}

// Default returns the device-default sanitization rules.
func Default() Rules {
	return New(DefaultForbidden, DefaultReplacement)
}

// New builds rules from a forbidden character string and a replacement rune.
// The replacement character is never treated as forbidden, which keeps
// sanitization idempotent. Path separators are ignored if present in the
// forbidden set; they are structural and handled by the caller.
func New(forbidden string, replacement rune) Rules {
	if replacement == 0 {
		replacement = DefaultReplacement
	}
	set := make(map[rune]struct{}, len(forbidden))
	for _, r := range forbidden {
		if r == replacement || r == '/' || r == '\\' {
			continue
		}
		set[r] = struct{}{}
	}
	return Rules{forbidden: set, replacement: replacement}
}

// Replacement returns the configured replacement character.
func (r Rules) Replacement() rune {
	if r.replacement == 0 {
		return DefaultReplacement
	}
	return r.replacement
}

// Forbidden reports whether the rune is replaced by these rules.
func (r Rules) Forbidden(c rune) bool {
	if c < 0x20 || c == 0x7f {
		return true
	}
	_, ok := r.forbidden[c]
	return ok
}

// Component sanitizes a single path component. Every forbidden character and
// every control character becomes the replacement character; all other
// characters, including non-ASCII, pass through untouched. The component must
// not contain path separators.
func (r Rules) Component(name string) string {
	if name == "" {
		return name
	}
	var b strings.Builder
	changed := false
	for _, c := range name {
		if r.Forbidden(c) {
			b.WriteRune(r.Replacement())
			changed = true
			continue
		}
		b.WriteRune(c)
	}
	if !changed {
		return name
	}
	return b.String()
}

// RelativePath sanitizes each component of a slash-separated relative path,
// preserving the separator structure exactly. Empty components (doubled
// slashes) are preserved as-is.
func (r Rules) RelativePath(rel string) string {
	if rel == "" {
		return rel
	}
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		parts[i] = r.Component(part)
	}
	return strings.Join(parts, "/")
}
