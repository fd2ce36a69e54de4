// Package resolve repairs playlist references against the filesystem index.
//
// A reference may not exist verbatim on disk because an intermediate
// filesystem silently replaced characters it cannot store (a question mark
// becoming an underscore is the classic case). The substitution happens in
// one direction only and is irreversible, so resolution works by collapsing
// every character that could have been mangled into a wildcard marker and
// comparing those reduced keys instead.
//
// Resolution is a pure function over an injected Snapshot; it performs no
// disk I/O of its own.
package resolve
