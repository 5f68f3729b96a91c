package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/migration"
)

func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply a data migration regardless of its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")

			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			asOf, err := monthFlag(cmd, "as-of")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.runner.RunManual(cmd.Context(), userID, key, asOf)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s  %-8s  %-6s  %-9s  %s\n", "Tenant", "Opening", "Rent", "Payments", "Errors")
			for _, t := range res.Report.Tenants {
				fmt.Fprintf(out, "%-24s  %-8t  %-6d  %-9d  %s\n",
					t.Name, t.OpeningBalanceCreated, t.RentChargesCreated, t.PaymentsAllocated, strings.Join(t.Errors, "; "))
			}
			fmt.Fprintf(out, "\nMigration %s: %s\n", res.Key, res.Status)

			if !res.Report.OK() {
				return fmt.Errorf("%d tenant error(s); state left as %s", len(res.Report.Errors()), res.Status)
			}
			return nil
		},
	}

	cmd.Flags().Uint("user", 0, "ID of the user whose data is migrated")
	cmd.Flags().String("key", migration.ChargeLedgerKey, "Migration key")
	cmd.Flags().String("as-of", "", "Last month to bill, YYYY-MM (default current month)")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
