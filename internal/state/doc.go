// Package state persists per-destination transfer records in SQLite under
// the output root. The skip rule consults these records on later runs (and
// for duplicate references within one run): a destination whose recorded
// source size, mtime, action, and bitrate still match the source on disk is
// already satisfied and is not regenerated.
package state
