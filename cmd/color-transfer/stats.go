package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

var statsCmd = &cobra.Command{
	Use:   "stats FILE...",
	Short: "Print Lab statistics of images as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("sample-size", 0, "Long-edge sampling budget (default from available memory)")
	rootCmd.AddCommand(statsCmd)
}

type fileStats struct {
	Path       string                   `json:"path"`
	Width      int                      `json:"width"`
	Height     int                      `json:"height"`
	Statistics transfer.ImageStatistics `json:"statistics"`
}

func runStats(cmd *cobra.Command, args []string) error {
	sampleSize, _ := cmd.Flags().GetInt("sample-size")

	eng, err := newEngine(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	if sampleSize <= 0 {
		sampleSize = eng.Governor().SampleBudget()
	}

	loader := imaging.NewFileLoader()
	results := make([]fileStats, 0, len(args))
	for _, path := range args {
		img, err := loader.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		stats, err := transfer.ComputeStatistics(img, sampleSize)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		b := img.Bounds()
		results = append(results, fileStats{Path: path, Width: b.Dx(), Height: b.Dy(), Statistics: stats})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
