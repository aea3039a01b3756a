package cli

import (
	"fmt"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/dunamismax/photocompress/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBackendCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Show which output format this build produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			preferred, ok := domain.ParseFormat(root.cfg.Compress.Format)
			if !ok {
				preferred = domain.FormatWebP
			}

			backend := pipeline.NewBackend()
			reencoder := pipeline.NewReencoder(backend, preferred)

			rows := []summaryRow{
				{Label: "Backend", Value: reencoder.Backend()},
				{Label: "Preferred", Value: string(preferred)},
				{Label: "Format", Value: string(reencoder.Format())},
				{Label: "Extension", Value: reencoder.Format().Extension()},
				{Label: "WebP", Value: yesNo(backend.Supports(domain.FormatWebP))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(rows))
			return nil
		},
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
