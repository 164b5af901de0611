package main

import (
	"os"

	"github.com/spf13/cobra"

	"techhive/internal/interfaces/cli/migrate"
	"techhive/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "techhive",
		Short: "Tech Hive - subscription billing service",
		Long:  `Tech Hive is the billing backend for the Tech Hive publishing platform, with built-in server and migration tools.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
