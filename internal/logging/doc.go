// Package logging builds slog loggers for playpack.
//
// Two formats are supported: a console handler for interactive runs and a
// JSON handler for log files and scripting. Attr helpers keep call sites
// free of direct slog imports.
package logging
