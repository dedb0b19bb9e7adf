package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fotoprotokoll/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which stages are cached and which will run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("set up logging: %w", err)
			}
			store, memoStore, err := ctx.openStores(cfg, logger)
			if err != nil {
				return err
			}
			defer memoStore.Close()

			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, 6)
			for _, stage := range pipeline.BuildStages(cfg, memoStore, logger) {
				state := "pending"
				updated := "-"
				if entry, ok := store.Get(stage.ID()); ok {
					state = "cached"
					updated = entry.WrittenAt.Local().Format(stampLayout)
					if _, err := os.Stat(filepath.Join(cfg.Project.Dir, entry.Artifact)); err != nil {
						state = "stale (artifact missing)"
					}
				}
				rows = append(rows, []string{
					string(stage.ID()),
					stage.ID().Name(),
					stage.Artifact(),
					state,
					updated,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Name", "Artifact", "State", "Updated"},
				rows,
				nil,
			))

			count, err := memoStore.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nMemoized analyses: %d\n", count)
			return nil
		},
	}
}
