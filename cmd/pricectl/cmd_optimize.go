package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amitpo23/medici-pricing/internal/optimizer"
)

// optimizeCmd triggers an immediate optimization pass on the service.
// The scheduled pass keeps running on its own cadence either way.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization pass now",
	RunE:  runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	var summary optimizer.RunSummary
	if err := apiCall("POST", "/api/optimize/run", nil, &summary); err != nil {
		return err
	}

	fmt.Printf("pass finished in %s\n", summary.Duration)
	fmt.Printf("  scanned      %d\n", summary.Scanned)
	fmt.Printf("  optimized    %d\n", summary.Optimized)
	fmt.Printf("  auto-applied %d\n", summary.AutoApplied)
	fmt.Printf("  suggested    %d\n", summary.Suggested)
	fmt.Printf("  ab-enrolled  %d\n", summary.ABEnrolled)
	fmt.Printf("  skipped      %d\n", summary.Skipped)
	fmt.Printf("  errors       %d\n", summary.Errors)
	fmt.Printf("  total delta  %.2f\n", summary.TotalDelta)
	return nil
}
