package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fotoprotokoll/internal/executor"
	"fotoprotokoll/internal/pipeline"
	"fotoprotokoll/internal/stagecache"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var fromStage string
	var cachedOnly bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline and produce the workshop document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("set up logging: %w", err)
			}

			opts := executor.RunOptions{CachedOnly: cachedOnly}
			if value := strings.TrimSpace(fromStage); value != "" {
				stage, err := stagecache.ParseStageID(value)
				if err != nil {
					return err
				}
				opts.FromStage = &stage
			}

			store, memoStore, err := ctx.openStores(cfg, logger)
			if err != nil {
				return err
			}
			defer memoStore.Close()

			stages := pipeline.BuildStages(cfg, memoStore, logger)
			runner := executor.NewRunner(cfg.Project.Dir, cfg.LockPath(), store, logger)

			results, runErr := runner.Run(cmd.Context(), stages, opts)

			out := cmd.OutOrStdout()
			if len(results) > 0 {
				printRunResults(out, results)
			}
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(out, "\nDocument: %s\n", filepath.Join(cfg.OutputDir(), "protokoll.html"))
			if plan, err := loadContentPlanFile(cfg); err == nil {
				if review := plan.ReviewCount(); review > 0 {
					fmt.Fprintf(out, "%d assignment(s) need review: run `fotoprotokoll review`\n", review)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStage, "from-stage", "", "Re-run from this stage even if cached (e.g. 3a or enrich)")
	cmd.Flags().BoolVar(&cachedOnly, "cached", false, "Fail instead of executing any stage that is not cached")
	return cmd
}

func printRunResults(out io.Writer, results []executor.StageResult) {
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			string(result.Stage),
			result.Stage.Name(),
			colorizeStatus(string(result.Status), colorize),
			formatDuration(result.Duration),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Name", "Status", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}
