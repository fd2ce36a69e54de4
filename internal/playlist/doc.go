// Package playlist reads and writes line-oriented playlist files.
//
// The input format is one path reference per line, UTF-8, with blank lines
// and #-prefixed lines ignored (this also skips EXTM3U directives, which are
// comments as far as this tool is concerned). Entry order is significant and
// preserved end to end.
package playlist
