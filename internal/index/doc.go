// Package index builds a read-only snapshot of the file paths under the
// source root. The snapshot is built once per run before any entry
// processing starts and is shared by all workers; it is never mutated,
// which mirrors the guarantee that the source tree is never touched.
package index
