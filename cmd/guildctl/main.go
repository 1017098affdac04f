// Command guildctl is the local admin CLI: roster seeding, town status,
// and reward estimation against the server's database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "guildctl",
		Short:         "GuildGrid admin CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/guildgrid.db", "path to the server database")

	rootCmd.AddCommand(
		newSeedCmd(),
		newStatusCmd(),
		newEstimateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
