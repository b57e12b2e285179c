package cmd

import (
	"fmt"
	"os"

	"GuildFM/app"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "guildfm",
	Short: "GuildFM is a multi-tenant audio playback orchestrator.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
