package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/photocompress/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCommand(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent compression runs from the usage ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.cfg.Database.DSN == "" {
				return errors.New("history needs a usage ledger: set POSTGRES_DSN or database.dsn")
			}

			ctx := cmd.Context()
			usage, err := store.NewPostgresUsageStore(ctx, root.cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer usage.Close()

			logs, err := usage.ListUsageLogs(ctx, limit)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("no runs recorded"))
				return nil
			}

			var b strings.Builder
			for i, l := range logs {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(headingStyle.Render(l.RunID))
				b.WriteString("\n")
				b.WriteString(renderSummary([]summaryRow{
					{Label: "When", Value: l.CreatedAt.Local().Format("2006-01-02 15:04:05")},
					{Label: "Files", Value: fmt.Sprint(l.Files)},
					{Label: "Format", Value: string(l.Format)},
					{Label: "Saved", Value: formatBytes(l.BytesSaved)},
					{Label: "Compute", Value: fmt.Sprintf("%dms", l.ComputeTimeMS)},
				}))
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
