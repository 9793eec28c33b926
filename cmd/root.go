package cmd

import (
	"context"

	"github.com/audioforge/audioforge/pkg/environment"
	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(fs afero.Fs, ctx context.Context, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "audioforge",
		Short: "WAV to MP3 conversion service.",
		Long: `Audioforge is a small web backend that accepts WAV uploads, converts them
to MP3 through ffmpeg on a bounded worker pool, and serves the converted
files back for download.`,
	}
	rootCmd.AddCommand(NewServeCommand(fs, ctx, env, logger))
	return rootCmd
}
