// Package tags copies text metadata and embedded cover art from a source
// audio file onto its MP3 destination. Reading is supported for FLAC and MP3
// sources; anything else yields an empty tag set rather than an error. Tag
// propagation is best-effort by contract: it can degrade to a partial result
// but never fails the entry it belongs to.
package tags
