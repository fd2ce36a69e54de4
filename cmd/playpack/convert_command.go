package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"playpack/internal/config"
	"playpack/internal/index"
	"playpack/internal/logging"
	"playpack/internal/media/ffaudio"
	"playpack/internal/pipeline"
	"playpack/internal/plan"
	"playpack/internal/playlist"
	"playpack/internal/preflight"
	"playpack/internal/resolve"
	"playpack/internal/sanitize"
	"playpack/internal/services/ffmpeg"
	"playpack/internal/state"
	"playpack/internal/tags"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts overrideFlags
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "convert [playlist]",
		Short: "Resolve, convert, and tag every entry of a playlist",
		Long: "Convert processes one playlist, or every *.m3u/*.m3u8 in the " +
			"configured playlist directory, copying or re-encoding the " +
			"referenced audio under the output root and writing a device " +
			"playlist per input playlist.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			if err := failOnPreflight(preflightForConvert(cfg)); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			paths, err := resolvePlaylists(cfg, args)
			if err != nil {
				return err
			}

			return runConvert(cmd, cfg, logger, paths, !noProgress)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress display")
	return cmd
}

// preflightForConvert creates the output and log directories first so a
// fresh device mount point does not fail the writability check.
func preflightForConvert(cfg *config.Config) []preflight.Result {
	_ = cfg.EnsureDirectories()
	return preflight.RunAll(cfg)
}

func failOnPreflight(results []preflight.Result) error {
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("preflight failed:")
	for _, r := range failed {
		fmt.Fprintf(&b, "\n  %s: %s", r.Name, r.Detail)
	}
	return fmt.Errorf("%s", b.String())
}

// resolvePlaylists returns the playlist files to process: the explicit
// argument when given, otherwise every playlist in the configured directory.
func resolvePlaylists(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 1 {
		path, err := config.ExpandPath(args[0])
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("playlist %s: %w", path, err)
		}
		return []string{path}, nil
	}

	paths, err := playlist.Discover(cfg.Paths.PlaylistDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no playlists found in %s", cfg.Paths.PlaylistDir)
	}
	return paths, nil
}

func runConvert(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, playlists []string, showProgress bool) error {
	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID))

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, state.StateDirName, "run.lock"))
	if err := os.MkdirAll(filepath.Dir(lock.Path()), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	held, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !held {
		return fmt.Errorf("another playpack run holds %s", cfg.Paths.OutputDir)
	}
	defer func() { _ = lock.Unlock() }()

	store, err := state.Open(cfg.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()
	if n, countErr := store.Count(cmd.Context()); countErr == nil {
		logger.Debug("state store open",
			logging.String("path", store.Path()),
			logging.Int("records", n))
	}

	logger.Info("indexing music library", logging.String("root", cfg.Paths.MusicDir))
	snap, err := index.Build(cfg.Paths.MusicDir)
	if err != nil {
		return fmt.Errorf("index %s: %w", cfg.Paths.MusicDir, err)
	}
	logger.Info("index ready", logging.Int("files", snap.Len()))

	bitrate, err := cfg.BitrateKbps()
	if err != nil {
		return err
	}
	rules := sanitize.New(cfg.Device.ForbiddenChars, cfg.ReplacementRune())
	planner := plan.New(cfg.Paths.OutputDir, bitrate, rules, cfg.Transcode.StripTrackNumbers,
		ffaudio.NewProber(cfg.FFprobeBinary()), store)

	deps := pipeline.Deps{
		Resolver:   resolve.New(cfg.ReplacementRune()),
		Planner:    planner,
		Transcoder: ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary())),
		Tagger:     tags.NewPropagator(tags.FileReader{}, tags.ID3Writer{}),
		Store:      store,
		Logger:     logger,
		Workers:    cfg.Transcode.Workers,
		RunID:      runID,
	}

	format := playlist.Format{
		DeviceRoot: cfg.Device.RootPrefix,
		Separator:  cfg.Device.PathSeparator,
	}

	out := cmd.OutOrStdout()
	var pw progress.Writer
	if showProgress && isatty.IsTerminal(os.Stdout.Fd()) {
		pw = newProgressWriter(out)
		go pw.Render()
		defer pw.Stop()
	}

	var exitErr error
	for _, path := range playlists {
		entries, err := playlist.ParseFile(path)
		if err != nil {
			return fmt.Errorf("parse playlist %s: %w", path, err)
		}

		deps.OnResult = nil
		var tracker *progress.Tracker
		if pw != nil {
			tracker = &progress.Tracker{
				Message: filepath.Base(path),
				Total:   int64(len(entries)),
				Units:   progress.UnitsDefault,
			}
			pw.AppendTracker(tracker)
			deps.OnResult = func(pipeline.Result) { tracker.Increment(1) }
		}

		pipe, err := pipeline.New(deps)
		if err != nil {
			return err
		}

		logger.Info("processing playlist",
			logging.String("playlist", path),
			logging.Int("entries", len(entries)))
		results := pipe.Run(cmd.Context(), snap, entries)
		if tracker != nil {
			tracker.MarkAsDone()
		}

		outPath := filepath.Join(cfg.Paths.OutputDir, playlist.OutputName(path))
		if err := playlist.WriteFile(outPath, pipeline.DoneDestinations(results), format); err != nil {
			return err
		}

		printRunReport(out, path, outPath, results)
		if err := cmd.Context().Err(); err != nil {
			exitErr = context.Canceled
			break
		}
	}
	return exitErr
}

func newProgressWriter(out io.Writer) progress.Writer {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetTrackerLength(25)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	return pw
}

func printRunReport(out io.Writer, inPath, outPath string, results []pipeline.Result) {
	summary := pipeline.Summarize(results)

	fmt.Fprintf(out, "\n%s -> %s\n", inPath, outPath)
	fmt.Fprintln(out, renderSummary(summary))

	problems := pipeline.Problems(results)
	if len(problems) == 0 {
		return
	}
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		detail := ""
		switch {
		case len(p.Candidates) > 0:
			detail = "candidates: " + strings.Join(p.Candidates, ", ")
		case p.Err != nil:
			detail = p.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprint(p.Entry.Line),
			p.Entry.Raw,
			string(p.Reason),
			detail,
		})
	}
	fmt.Fprintln(out, renderRows([]string{"Line", "Reference", "Reason", "Detail"}, rows))
}
