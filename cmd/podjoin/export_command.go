package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podjoin/internal/config"
	"podjoin/internal/episode"
	"podjoin/internal/history"
	"podjoin/internal/logging"
	"podjoin/internal/pipeline"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var chapter int
	var outputDir string
	var jobs int

	cmd := &cobra.Command{
		Use:   "export <episode-folder>",
		Short: "Normalize an episode folder and export the chapter MP3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if jobs > 0 {
				cfg.Workflow.NormalizeJobs = jobs
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			episodeDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve episode folder: %w", err)
			}
			destDir := outputDir
			if destDir != "" {
				if destDir, err = config.ExpandPath(destDir); err != nil {
					return fmt.Errorf("resolve output folder: %w", err)
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			p := pipeline.New(cfg, logger,
				pipeline.WithStore(store),
				pipeline.WithProgress(func(state pipeline.State, role episode.Role) {
					switch state {
					case pipeline.StateValidating:
						fmt.Fprintln(out, "Checking episode folder...")
					case pipeline.StateMeasuringBaseline:
						fmt.Fprintf(out, "Measuring baseline loudness (%s)...\n",
							episode.DisplayName(episode.ReferenceRole))
					case pipeline.StateNormalizing:
						if role != "" {
							fmt.Fprintf(out, "Normalizing %s...\n", episode.DisplayName(role))
						}
					case pipeline.StateExporting:
						fmt.Fprintln(out, "Encoding chapter MP3...")
					}
				}),
			)

			result := p.Run(runCtx, pipeline.Job{
				EpisodeDir: episodeDir,
				OutputDir:  destDir,
				Chapter:    chapter,
			})
			if result.Err != nil {
				return result.Err
			}
			fmt.Fprintf(out, "Exported %s (baseline %.2f LUFS)\n", result.OutputPath, result.BaselineLUFS)
			return nil
		},
	}

	cmd.Flags().IntVarP(&chapter, "chapter", "n", 0, "Chapter number for the output file name")
	_ = cmd.MarkFlagRequired("chapter")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Destination folder (defaults to the episode folder)")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "Concurrent normalization processes (1-6)")
	return cmd
}
