package cmd

import (
	"fmt"

	"github.com/finman/finman/internal/batch"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkBudgetsCmd = &cobra.Command{
	Use:   "check-budgets",
	Short: "Evaluate the active budgets of every user once",
	RunE:  runCheckBudgets,
}

var resetBillsCmd = &cobra.Command{
	Use:   "reset-bills",
	Short: "Start a new billing cycle by marking paid recurring bills unpaid",
	RunE:  runResetBills,
}

func init() {
	rootCmd.AddCommand(checkBudgetsCmd)
	rootCmd.AddCommand(resetBillsCmd)
}

func runCheckBudgets(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, err := openApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Dependencies().Monitor.CheckAll(ctx, workers(application))
	if err != nil {
		return err
	}
	return summarize(cmd, "budget check", report)
}

func runResetBills(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, err := openApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Dependencies().BillResetter.ResetAll(ctx, workers(application))
	if err != nil {
		return err
	}
	return summarize(cmd, "bill reset", report)
}

// summarize prints the outcome counts and fails the command when any item failed.
func summarize(cmd *cobra.Command, job string, report batch.Report) error {
	failed := report.Failed()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d outcome(s), %d failed\n", job, len(report.Outcomes), len(failed))
	if err := report.Err(); err != nil {
		log.Errorf("%s finished with failures: %v", job, err)
		return err
	}
	return nil
}
