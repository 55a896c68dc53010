// Package cli implements attendancectl, the operator command line for
// migrations, batch reconciliation, record maintenance and holiday backups.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "attendancectl",
	Short: "Operator tool for the attendance engine",
	Long: `attendancectl runs maintenance against the attendance database:
schema migrations, reconciliation of stored punches, record cleanup,
holiday list backups and approved-hours exports.

Configuration is read the same way the server reads it: config.yaml,
ATTEND_* environment variables and an optional .env file.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config/config.yaml)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(exportCmd)
}
