// Package cli implements the photocompress command line.
package cli

import (
	"context"

	"github.com/dunamismax/photocompress/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        config.Config
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "photocompress",
		Short: "Downsize and re-encode photos into one zip archive",
		Long: "photocompress re-encodes every selected image to WebP (or JPEG when WebP is unavailable),\n" +
			"caps the width, and bundles the results into a single archive.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.AddCommand(
		newCompressCommand(opts),
		newBackendCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// Execute runs the root command with args taken from os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
