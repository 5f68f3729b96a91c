package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/migration/commands"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "rentledger",
		Short:         "Rent charge ledger and payment allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		commands.InitCmd(),
		commands.MigrateCmd(),
		commands.RunCmd(),
		commands.StatusCmd(),
		commands.BalanceCmd(),
		commands.ReportCmd(),
		commands.ServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
