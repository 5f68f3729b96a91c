package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func BalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a tenant's balance for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetUint("tenant")
			if tenantID == 0 {
				return fmt.Errorf("--tenant is required")
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

			tenant, err := a.store.GetTenant(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			res, err := a.balances.Balance(cmd.Context(), *tenant, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s %s\n", "Tenant", tenant.FullName())
			fmt.Fprintf(out, "%-16s %s\n", "Month", res.Month)
			fmt.Fprintf(out, "%-16s %s\n", "Expected", res.Expected.StringFixed(2))
			fmt.Fprintf(out, "%-16s %s\n", "Paid", res.TotalPaid.StringFixed(2))
			fmt.Fprintf(out, "%-16s %s\n", "Paid this month", res.PaidThisPeriod.StringFixed(2))
			fmt.Fprintf(out, "%-16s %s\n", "Balance", res.Balance.String())
			fmt.Fprintf(out, "%-16s %s\n", "Status", res.Status)
			return nil
		},
	}

	cmd.Flags().Uint("tenant", 0, "Tenant ID")
	cmd.Flags().String("month", "", "Month, YYYY-MM (default current month)")
	cmd.Flags().String("source", "", "Balance source: formula or ledger (default BALANCE_SOURCE)")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
