// Command cachectl inspects and maintains the local cache of the study sync
// client.
package main

import (
	"fmt"
	"os"

	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

var (
	cacheDSN   string
	configPath string
	pruneDays  int
	auditLimit int
	clock      clockwork.Clock = clockwork.NewRealClock()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cachectl",
		Short:         "Inspect and maintain the study sync local cache",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&cacheDSN, "cache", "", "Local cache path (overrides STORAGE_CACHE_DSN)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cache entries with their size and age",
		Args:  cobra.NoArgs,
		RunE:  listEntries,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [key]",
		Short: "Print the records stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpEntry,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove entries older than the retention period",
		Args:  cobra.NoArgs,
		RunE:  pruneEntries,
	}
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention in days (default from config)")

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the newest audit log entries",
		Args:  cobra.NoArgs,
		RunE:  listAudit,
	}
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Number of entries to show, 0 for all")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := models.NewBuildInfo(buildVersion, buildDate, buildCommit)
			fmt.Fprint(cmd.OutOrStdout(), renderBuildInfo(info))
		},
	}

	rootCmd.AddCommand(listCmd, dumpCmd, pruneCmd, auditCmd, versionCmd)
	return rootCmd
}
