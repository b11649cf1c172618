package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskctl",
		Short: "Service desk administration tools",
		Long:  `deskctl issues bearer tokens for local testing and applies database migrations.`,
	}

	rootCmd.AddCommand(
		newTokenCommand(),
		newMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
