package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/model"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List photo assignments and their confidence scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			plan, err := loadContentPlanFile(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(plan.Items))
			for _, item := range plan.Items {
				if !showAll && !item.NeedsReview {
					continue
				}
				flag := ""
				if item.NeedsReview {
					flag = "review"
				}
				rows = append(rows, []string{
					item.ItemID,
					item.PhotoID,
					item.SessionID,
					fmt.Sprintf("%.2f", item.Confidence),
					flag,
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "All assignments are above the confidence threshold")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Item", "Photo", "Session", "Confidence", ""},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))

			if len(plan.UnassignedNotes) > 0 {
				fmt.Fprintf(out, "\nUnassigned notes: %d\n", len(plan.UnassignedNotes))
				for _, note := range plan.UnassignedNotes {
					fmt.Fprintf(out, "  - %s (best: %s at %.2f)\n", note.Source, note.BestSessionID, note.BestConfidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "List every assignment, not only the ones needing review")
	return cmd
}

func loadContentPlanFile(cfg *config.Config) (*model.ContentPlan, error) {
	path := filepath.Join(cfg.CacheDir(), "content_plan.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("no content plan found; run `fotoprotokoll run` first")
		}
		return nil, fmt.Errorf("read content plan: %w", err)
	}
	var plan model.ContentPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse content plan: %w", err)
	}
	return &plan, nil
}
