package cmd

import (
	"GuildFM/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the playback orchestrator",
	Long:  `Connects to the database, cache and audio node, restores persisted guild queues and serves playback until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
