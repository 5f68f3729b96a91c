package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly rent report for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			month, err := monthFlag(cmd, "month")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.reports.Monthly(cmd.Context(), userID, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s  %-8s  %12s  %12s  %-8s\n", "Tenant", "Unit", "Paid", "Balance", "Status")
			for _, r := range rep.Rows {
				fmt.Fprintf(out, "%-24s  %-8s  %12s  %12s  %-8s\n",
					r.Name, r.Unit, r.PaidThisPeriod.StringFixed(2), r.Balance.String(), r.Status)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-12s %s\n", "Month", rep.Month)
			fmt.Fprintf(out, "%-12s %d\n", "Properties", rep.Properties)
			fmt.Fprintf(out, "%-12s %s\n", "Collected", rep.Totals.Collected.StringFixed(2))
			fmt.Fprintf(out, "%-12s %s\n", "Arrears", rep.Totals.Arrears.StringFixed(2))
			fmt.Fprintf(out, "%-12s %s\n", "Credit", rep.Totals.Credit.StringFixed(2))
			fmt.Fprintf(out, "%-12s %s\n", "Expenses", rep.Expenses.StringFixed(2))
			fmt.Fprintf(out, "%-12s %s\n", "Net income", rep.NetIncome.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().Uint("user", 0, "ID of the user")
	cmd.Flags().String("month", "", "Month, YYYY-MM (default current month)")
	cmd.Flags().String("source", "", "Balance source: formula or ledger (default BALANCE_SOURCE)")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
