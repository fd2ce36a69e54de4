package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"playpack/internal/index"
	"playpack/internal/media/ffaudio"
	"playpack/internal/pipeline"
	"playpack/internal/plan"
	"playpack/internal/playlist"
	"playpack/internal/resolve"
	"playpack/internal/sanitize"
	"playpack/internal/state"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var opts overrideFlags

	cmd := &cobra.Command{
		Use:   "plan [playlist]",
		Short: "Show what convert would do without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			paths, err := resolvePlaylists(cfg, args)
			if err != nil {
				return err
			}

			snap, err := index.Build(cfg.Paths.MusicDir)
			if err != nil {
				return fmt.Errorf("index %s: %w", cfg.Paths.MusicDir, err)
			}

			bitrate, err := cfg.BitrateKbps()
			if err != nil {
				return err
			}

			// A dry run must not create state under the output root, so
			// prior-run records only inform the plan when they exist.
			var store *state.Store
			statePath := filepath.Join(cfg.Paths.OutputDir, state.StateDirName)
			if _, statErr := os.Stat(statePath); statErr == nil {
				store, err = state.Open(cfg.Paths.OutputDir)
				if err != nil {
					return fmt.Errorf("open state store: %w", err)
				}
				defer store.Close()
			}

			rules := sanitize.New(cfg.Device.ForbiddenChars, cfg.ReplacementRune())
			var lookups plan.Lookups
			if store != nil {
				lookups = store
			}
			planner := plan.New(cfg.Paths.OutputDir, bitrate, rules,
				cfg.Transcode.StripTrackNumbers, ffaudio.NewProber(cfg.FFprobeBinary()), lookups)
			resolver := resolve.New(cfg.ReplacementRune())

			out := cmd.OutOrStdout()
			for _, path := range paths {
				entries, err := playlist.ParseFile(path)
				if err != nil {
					return fmt.Errorf("parse playlist %s: %w", path, err)
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, planRow(cmd, resolver, planner, snap, entry))
				}

				fmt.Fprintf(out, "\n%s (%d entries)\n", path, len(entries))
				fmt.Fprintln(out, renderRows([]string{"Line", "Reference", "Action", "Destination"}, rows))
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func planRow(cmd *cobra.Command, resolver *resolve.Resolver, planner *plan.Planner, snap *index.Snapshot, entry playlist.Entry) []string {
	line := fmt.Sprint(entry.Line)

	rel, err := resolver.Resolve(entry.Raw, snap)
	if err != nil {
		reason := string(pipeline.ReasonNotFound)
		var ambiguous *resolve.AmbiguousError
		if errors.As(err, &ambiguous) {
			reason = string(pipeline.ReasonAmbiguous)
		}
		return []string{line, entry.Raw, "skip: " + reason, ""}
	}

	pl, err := planner.Plan(cmd.Context(), snap.Root(), rel)
	if err != nil {
		return []string{line, entry.Raw, "error", err.Error()}
	}

	action := string(pl.Action)
	if pl.Satisfied {
		action = "up to date"
	}
	return []string{line, entry.Raw, action, pl.DestRel}
}
