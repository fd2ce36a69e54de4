// Package sanitize maps filesystem path components onto the restricted
// character set the target device accepts.
//
// Sanitization is rule-driven: a Rules value carries the forbidden character
// set and the replacement character. Applying the same rules twice is a
// no-op, so already-sanitized names pass through unchanged.
package sanitize
