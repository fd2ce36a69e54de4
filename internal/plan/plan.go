package plan

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/djherbis/times"

	"playpack/internal/media/ffaudio"
	"playpack/internal/sanitize"
	"playpack/internal/state"
)

// Action distinguishes byte-identical copies from re-encodes.
type Action string

const (
	ActionCopy      Action = "copy"
	ActionTranscode Action = "transcode"
)

// Plan is the per-entry work order produced by the Planner.
type Plan struct {
	// SourceRel is the resolved source path relative to the source root,
	// slash-separated.
	SourceRel string
	// SourceAbs is the absolute source path. Never written to.
	SourceAbs string
	// DestRel is the sanitized destination path relative to the output
	// root, slash-separated, always ending in .mp3.
	DestRel string
	// DestAbs is the absolute destination path.
	DestAbs string
	Action  Action
	// BitrateKbps is the target encode bitrate. Informational for copies.
	BitrateKbps int
	// SourceSize and SourceMtimeNS capture the source state the plan was
	// made against, for the skip rule.
	SourceSize    int64
	SourceMtimeNS int64
	// Satisfied is set when a prior run (or an earlier duplicate reference
	// in this run) already produced this destination from the same source
	// state; execution is then a no-op.
	Satisfied bool
}

// Prober reports audio stream details for the copy-vs-transcode decision.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffaudio.Info, error)
}

// Lookups is the slice of the state store the planner needs.
type Lookups interface {
	Lookup(ctx context.Context, destPath string) (state.Record, bool, error)
}

// Planner computes transcode plans. All fields are read-only after
// construction; a single Planner is shared by all pipeline workers.
type Planner struct {
	outputRoot     string
	bitrateKbps    int
	rules          sanitize.Rules
	stripTrackNums bool
	prober         Prober
	store          Lookups
}

// New constructs a Planner. The store may be nil, in which case no plan is
// ever marked satisfied.
func New(outputRoot string, bitrateKbps int, rules sanitize.Rules, stripTrackNums bool, prober Prober, store Lookups) *Planner {
	return &Planner{
		outputRoot:     filepath.Clean(outputRoot),
		bitrateKbps:    bitrateKbps,
		rules:          rules,
		stripTrackNums: stripTrackNums,
		prober:         prober,
		store:          store,
	}
}

// Plan computes the destination and action for a resolved source file.
// sourceRel is relative to sourceRoot and slash-separated.
func (p *Planner) Plan(ctx context.Context, sourceRoot, sourceRel string) (Plan, error) {
	sourceAbs := filepath.Join(sourceRoot, filepath.FromSlash(sourceRel))

	size, mtimeNS, err := SourceStamp(sourceAbs)
	if err != nil {
		return Plan{}, fmt.Errorf("stat source %s: %w", sourceAbs, err)
	}

	destRel := p.DestinationRel(sourceRel)
	result := Plan{
		SourceRel:     sourceRel,
		SourceAbs:     sourceAbs,
		DestRel:       destRel,
		DestAbs:       filepath.Join(p.outputRoot, filepath.FromSlash(destRel)),
		Action:        ActionTranscode,
		BitrateKbps:   p.bitrateKbps,
		SourceSize:    size,
		SourceMtimeNS: mtimeNS,
	}

	if isMP3Path(sourceRel) && p.prober != nil {
		info, probeErr := p.prober.Inspect(ctx, sourceAbs)
		// An unreadable source falls through to TRANSCODE; the encoder
		// produces the real diagnostic if the file is truly broken.
		if probeErr == nil && info.IsMP3() {
			if kbps := info.BitRateKbps(); kbps > 0 && kbps <= p.bitrateKbps {
				result.Action = ActionCopy
			}
		}
	}

	satisfied, err := p.alreadySatisfied(ctx, result)
	if err != nil {
		return Plan{}, err
	}
	result.Satisfied = satisfied
	return result, nil
}

// alreadySatisfied applies the skip rule: the destination exists and the
// state store records the same source size/mtime, action, and bitrate.
func (p *Planner) alreadySatisfied(ctx context.Context, pl Plan) (bool, error) {
	if p.store == nil {
		return false, nil
	}
	if _, err := os.Stat(pl.DestAbs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat destination %s: %w", pl.DestAbs, err)
	}
	rec, ok, err := p.store.Lookup(ctx, pl.DestRel)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return rec.Matches(pl.SourceSize, pl.SourceMtimeNS, string(pl.Action), pl.BitrateKbps), nil
}

// DestinationRel maps a source-relative path to its destination-relative
// path: each directory component sanitized individually, the extension
// normalized to .mp3, and optionally a leading track number stripped from
// the filename. Distinct sources may collapse onto one destination.
func (p *Planner) DestinationRel(sourceRel string) string {
	dir := path.Dir(sourceRel)
	base := path.Base(sourceRel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if p.stripTrackNums {
		stem = stripLeadingTrackNumber(stem)
	}
	name := p.rules.Component(stem) + ".mp3"
	if dir == "." {
		return name
	}
	return p.rules.RelativePath(dir) + "/" + name
}

// stripLeadingTrackNumber removes a "NN - " prefix when NN parses as an
// integer; anything else is left alone.
func stripLeadingTrackNumber(stem string) string {
	prefix, rest, found := strings.Cut(stem, " - ")
	if !found || rest == "" {
		return stem
	}
	if _, err := strconv.Atoi(strings.TrimSpace(prefix)); err != nil {
		return stem
	}
	return rest
}

// SourceStamp returns the size and modification time (nanoseconds) used to
// fingerprint a source file for the skip rule.
func SourceStamp(path string) (int64, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	spec, err := times.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	return info.Size(), spec.ModTime().UnixNano(), nil
}

func isMP3Path(rel string) bool {
	return strings.EqualFold(path.Ext(rel), ".mp3")
}
