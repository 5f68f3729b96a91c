package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show data migration state for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s  %-10s  %-20s  %-20s  %s\n", "Key", "Status", "Started", "Completed", "Last error")
			for _, m := range a.runner.Migrations() {
				state, err := a.runner.State(cmd.Context(), userID, m.Key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-20s  %-10s  %-20s  %-20s  %s\n",
					m.Key, state.Status, formatTime(state.StartedAt), formatTime(state.CompletedAt), state.LastError)
			}
			return nil
		},
	}

	cmd.Flags().Uint("user", 0, "ID of the user")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
