package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amitpo23/medici-pricing/internal/rules"
)

var historyLimit int

// rulesCmd is the parent command for decision rule operations
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and toggle decision rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every decision rule and its toggle state",
	RunE:  runRulesList,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Enable a decision rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRule(args[0], true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a decision rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRule(args[0], false)
	},
}

var rulesHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent decision outcomes, newest first",
	RunE:  runRulesHistory,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesHistoryCmd)

	rulesHistoryCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum number of outcomes to show")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Rules []rules.RuleStatus `json:"rules"`
	}
	if err := apiCall("GET", "/api/rules", nil, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tENABLED\tLABEL")
	for _, r := range resp.Rules {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", r.ID, r.Action, r.Enabled, r.Label)
	}
	return w.Flush()
}

func toggleRule(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	var resp struct {
		Rule    string `json:"rule"`
		Enabled bool   `json:"enabled"`
	}
	if err := apiCall("PUT", "/api/rules/"+id, body, &resp); err != nil {
		return err
	}
	fmt.Printf("rule %s enabled=%t\n", resp.Rule, resp.Enabled)
	return nil
}

func runRulesHistory(cmd *cobra.Command, args []string) error {
	var resp struct {
		Decisions []rules.DecisionOutcome `json:"decisions"`
	}
	path := fmt.Sprintf("/api/rules/history?limit=%d", historyLimit)
	if err := apiCall("GET", path, nil, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tITEM\tRULE\tACTION\tSTATUS\tDETAILS")
	for _, o := range resp.Decisions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Timestamp.Format("2006-01-02 15:04:05"), o.ItemID, o.RuleID, o.Action, o.Status, o.Details)
	}
	return w.Flush()
}
