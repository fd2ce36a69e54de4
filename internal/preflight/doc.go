// Package preflight provides readiness checks for the filesystem paths and
// external binaries a conversion run depends on.
//
// The convert command calls RunAll before touching any file so a missing
// ffmpeg or an unmounted device fails the run up front instead of partway
// through a playlist.
package preflight
