package main

import (
	"github.com/spf13/cobra"

	"playpack/internal/config"
)

// overrideFlags carries the per-invocation settings that take precedence
// over the configuration file.
type overrideFlags struct {
	musicDir    string
	playlistDir string
	outputDir   string
	bitrate     string
	workers     int
	stripNums   bool
}

func (o *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.musicDir, "music-dir", "", "Music library root (overrides config)")
	cmd.Flags().StringVar(&o.playlistDir, "playlist-dir", "", "Directory scanned for playlists (overrides config)")
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "", "Output root, typically the device mount (overrides config)")
	cmd.Flags().StringVar(&o.bitrate, "bitrate", "", "Bitrate ceiling, e.g. 320k (overrides config)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Concurrent conversion workers (overrides config)")
	cmd.Flags().BoolVar(&o.stripNums, "strip-track-numbers", false, "Drop leading \"NN - \" from destination filenames")
}

// apply copies changed flags onto cfg and re-validates the result.
func (o *overrideFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("music-dir") {
		expanded, err := config.ExpandPath(o.musicDir)
		if err != nil {
			return err
		}
		cfg.Paths.MusicDir = expanded
		if !cmd.Flags().Changed("playlist-dir") {
			cfg.Paths.PlaylistDir = expanded
		}
	}
	if cmd.Flags().Changed("playlist-dir") {
		expanded, err := config.ExpandPath(o.playlistDir)
		if err != nil {
			return err
		}
		cfg.Paths.PlaylistDir = expanded
	}
	if cmd.Flags().Changed("output-dir") {
		expanded, err := config.ExpandPath(o.outputDir)
		if err != nil {
			return err
		}
		cfg.Paths.OutputDir = expanded
	}
	if cmd.Flags().Changed("bitrate") {
		cfg.Transcode.Bitrate = o.bitrate
	}
	if cmd.Flags().Changed("workers") {
		cfg.Transcode.Workers = o.workers
	}
	if cmd.Flags().Changed("strip-track-numbers") {
		cfg.Transcode.StripTrackNumbers = o.stripNums
	}
	return cfg.Validate()
}
