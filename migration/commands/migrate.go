package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending data migrations for a user",
		Long:  `Advances every registered data migration through its state machine for one user. Completed and failed migrations are left alone; use "run" to apply a migration again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

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
			out := cmd.OutOrStdout()

			if dryRun {
				fmt.Fprintf(out, "%-20s  %-10s  %-6s\n", "Key", "Status", "Needed")
				for _, m := range a.runner.Migrations() {
					state, err := a.runner.State(cmd.Context(), userID, m.Key)
					if err != nil {
						return err
					}
					needed, err := m.Needed(cmd.Context(), userID)
					if err != nil {
						return fmt.Errorf("failed to check %s: %w", m.Key, err)
					}
					fmt.Fprintf(out, "%-20s  %-10s  %-6t\n", m.Key, state.Status, needed)
				}
				return nil
			}

			results, err := a.runner.Up(cmd.Context(), userID, asOf)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%-20s  %-10s  %-4s  %s\n", "Key", "Status", "Ran", "Last error")
			for _, res := range results {
				fmt.Fprintf(out, "%-20s  %-10s  %-4t  %s\n", res.Key, res.Status, res.Ran, res.LastError)
			}
			return nil
		},
	}

	cmd.Flags().Uint("user", 0, "ID of the user whose data is migrated")
	cmd.Flags().String("as-of", "", "Last month to bill, YYYY-MM (default current month)")
	cmd.Flags().Bool("dry-run", false, "Show which migrations are needed without running them")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
