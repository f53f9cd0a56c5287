package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	dryRun  bool
)

// rootCmd deletes expired anonymous notes once and exits; suited to cron.
var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete anonymous notes whose expiry has passed",
	Long: `Sweep removes every anonymous note with expires_at in the past.
Permanent notes are never touched. Running it twice in a row deletes nothing the second time.`,
	SilenceUsage: true,
	RunE:         runSweep,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every SQL statement")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only count the notes that would be deleted")
}
