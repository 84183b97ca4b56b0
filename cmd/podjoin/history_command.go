package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podjoin/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No export runs recorded yet")
				return nil
			}

			headers := []string{"ID", "When", "Chapter", "Status", "Baseline", "Output"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				baseline := ""
				if run.BaselineLUFS != 0 {
					baseline = fmt.Sprintf("%.2f LUFS", run.BaselineLUFS)
				}
				output := run.OutputPath
				if run.Status == history.StatusFailed {
					output = run.ErrorKind
					if run.ErrorMessage != "" {
						output = fmt.Sprintf("%s: %s", run.ErrorKind, truncate(run.ErrorMessage, 60))
					}
				}
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(run.Chapter),
					string(run.Status),
					baseline,
					output,
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, 1, 3))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
