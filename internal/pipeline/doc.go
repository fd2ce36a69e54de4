// Package pipeline orchestrates a conversion run.
//
// Each playlist entry moves through resolve, plan, execute, and tag
// independently of every other entry, so a bounded worker pool processes
// them in any order. Results are collected by original entry index and the
// output playlist is emitted in input order from entries that finished.
// Per-entry problems never abort the run; they surface as tagged outcomes
// in the summary.
package pipeline
