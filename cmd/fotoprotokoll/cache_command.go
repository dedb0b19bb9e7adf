package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage pipeline caches",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"stats"},
		Short:   "Show cache usage",
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

			count, err := memoStore.Count(cmd.Context())
			if err != nil {
				return err
			}
			processedBytes, processedCount := dirUsage(cfg.ProcessedDir())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cached stages:      %d\n", len(store.Entries()))
			fmt.Fprintf(out, "Memoized analyses:  %d\n", count)
			fmt.Fprintf(out, "Processed photos:   %d (%s)\n", processedCount, humanBytes(processedBytes))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var keepMemo bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stage manifest, processed photos, and memoized analyses",
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

			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear stage manifest: %w", err)
			}
			if err := os.RemoveAll(cfg.ProcessedDir()); err != nil {
				return fmt.Errorf("remove processed photos: %w", err)
			}
			out := cmd.OutOrStdout()
			if keepMemo {
				fmt.Fprintln(out, "Cleared stage manifest and processed photos (memoized analyses kept)")
				return nil
			}
			if err := memoStore.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear memoized analyses: %w", err)
			}
			fmt.Fprintln(out, "Cleared stage manifest, processed photos, and memoized analyses")
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepMemo, "keep-analyses", false, "Keep memoized analysis results")
	return cmd
}

func dirUsage(dir string) (int64, int) {
	var total int64
	var count int
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += info.Size()
			count++
		}
		return nil
	})
	return total, count
}
