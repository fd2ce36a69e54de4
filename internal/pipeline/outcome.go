package pipeline

import (
	"playpack/internal/plan"
	"playpack/internal/playlist"
)

// Status is the terminal state of one playlist entry.
type Status string

const (
	// StatusDone means the destination exists and the entry appears in the
	// output playlist.
	StatusDone Status = "done"
	// StatusSkipped means the entry could not be resolved to a source file
	// and was left out of the output playlist.
	StatusSkipped Status = "skipped"
	// StatusFailed means planning or execution failed and the entry was
	// left out of the output playlist.
	StatusFailed Status = "failed"
)

// Reason classifies why an entry did not complete cleanly.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNotFound   Reason = "resolution_failure"
	ReasonAmbiguous  Reason = "ambiguous_match"
	ReasonTranscode  Reason = "transcode_failure"
	ReasonTagPartial Reason = "tag_partial"
)

// Result is the outcome of one playlist entry.
type Result struct {
	// Index is the entry's position in the input playlist.
	Index  int
	Entry  playlist.Entry
	Status Status
	Reason Reason
	// Plan is populated once the entry resolves.
	Plan plan.Plan
	// Candidates holds the tied matches of an ambiguous resolution.
	Candidates []string
	// Warning records a non-fatal problem on a done entry.
	Warning string
	Err     error
}

// Summary aggregates per-entry outcomes for the final report.
type Summary struct {
	Total      int
	Done       int
	Copied     int
	Transcoded int
	Reused     int
	Skipped    int
	Failed     int
	Warnings   int
}

// Summarize tallies results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusDone:
			s.Done++
			switch {
			case r.Plan.Satisfied:
				s.Reused++
			case r.Plan.Action == plan.ActionCopy:
				s.Copied++
			default:
				s.Transcoded++
			}
			if r.Warning != "" {
				s.Warnings++
			}
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// DoneDestinations returns the destination paths of done entries in input
// order, relative to the output root.
func DoneDestinations(results []Result) []string {
	var rels []string
	for _, r := range results {
		if r.Status == StatusDone {
			rels = append(rels, r.Plan.DestRel)
		}
	}
	return rels
}

// Problems returns skipped and failed results in input order.
func Problems(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status != StatusDone {
			out = append(out, r)
		}
	}
	return out
}
