package cmd

import (
	"GuildFM/app"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one maintenance pass and exit",
	Long:  `Evicts expired cache entries, expires old daily playlists and purges rows scheduled for deletion, then exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Sweep()
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
