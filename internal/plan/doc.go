// Package plan decides, per resolved playlist entry, whether the source is
// copied or transcoded, and where the destination lives under the output
// root. Plans are immutable once created and consumed exactly once by the
// pipeline's execution step.
package plan
