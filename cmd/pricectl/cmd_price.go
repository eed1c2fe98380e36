package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

var (
	priceStrategy string
	priceCompare  bool
	auditKind     string
	auditLimit    int
)

// priceCmd prices one stored position on demand
var priceCmd = &cobra.Command{
	Use:   "price <item-id>",
	Short: "Compute a price recommendation for a stored position",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrice,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the price audit trail, newest first",
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(auditCmd)

	priceCmd.Flags().StringVar(&priceStrategy, "strategy", "balanced", "Pricing strategy (conservative|balanced|competitive|aggressive|premium)")
	priceCmd.Flags().BoolVar(&priceCompare, "compare", false, "Run every strategy side by side")

	auditCmd.Flags().StringVar(&auditKind, "kind", "", "Filter by entry kind")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum number of entries to show")
}

func runPrice(cmd *cobra.Command, args []string) error {
	body := map[string]string{
		"item_id":  args[0],
		"strategy": priceStrategy,
	}

	if priceCompare {
		var resp struct {
			Recommendations []domain.PriceRecommendation `json:"recommendations"`
		}
		if err := apiCall("POST", "/api/pricing/compare", body, &resp); err != nil {
			return err
		}
		return printRecommendations(resp.Recommendations)
	}

	var rec domain.PriceRecommendation
	if err := apiCall("POST", "/api/pricing/calculate", body, &rec); err != nil {
		return err
	}
	return printRecommendations([]domain.PriceRecommendation{rec})
}

func printRecommendations(recs []domain.PriceRecommendation) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tPRICE\tPROFIT\tMARGIN\tCONFIDENCE\tRISK\tPOSITION")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.1f%%\t%.2f\t%s\t%s\n",
			rec.Strategy, rec.RecommendedPrice, rec.Profit, rec.ProfitMargin*100,
			rec.Confidence, rec.Risk, rec.MarketPosition)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.Degraded {
			fmt.Printf("note: %s ran on partial market data\n", rec.Strategy)
		}
	}
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	var resp struct {
		Entries []domain.AuditEntry `json:"entries"`
	}
	path := fmt.Sprintf("/api/audit?limit=%d", auditLimit)
	if auditKind != "" {
		path += "&kind=" + auditKind
	}
	if err := apiCall("GET", path, nil, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tITEM\tKIND\tOLD\tNEW\tSTRATEGY\tDETAILS")
	for _, e := range resp.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.ItemID, e.Kind,
			e.OldPrice, e.NewPrice, e.Strategy, e.Details)
	}
	return w.Flush()
}
