// Command kanon lists, inspects and converts result snapshots stored in a
// local directory, S3 or MinIO.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kanon",
		Short: "Inspect k-anonymity result snapshots",
		Long: `kanon works with the snapshots written by Result.Save.

Stores are addressed by --store:
  ./snapshots                    local directory
  file:///var/lib/kanon          local directory
  s3://bucket/prefix             AWS S3 (default credential chain)
  minio://host:9000/bucket/pfx   MinIO (MINIO_ACCESS_KEY / MINIO_SECRET_KEY)`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("store", ".", "Snapshot store")
	rootCmd.PersistentFlags().Bool("insecure", false, "Use plain HTTP for minio:// stores")
	rootCmd.PersistentFlags().Int("cache-blocks", 0, "Cache up to this many 1 MiB blocks of remote reads (0 disables)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kanon v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list [prefix]",
		Short: "List snapshots in the store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	})

	inspectCmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Print the header and statistics of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().String("format", "yaml", "Output format: yaml or json")
	inspectCmd.Flags().Bool("clusters", false, "Include cluster membership")
	rootCmd.AddCommand(inspectCmd)

	convertCmd := &cobra.Command{
		Use:   "convert [source] [target]",
		Short: "Re-encode a snapshot with another compression or codec",
		Args:  cobra.ExactArgs(2),
		RunE:  runConvert,
	}
	convertCmd.Flags().String("compression", "zstd", "Target compression: none, lz4 or zstd")
	convertCmd.Flags().String("codec", "go-json", "Target codec: json or go-json")
	convertCmd.Flags().String("target-store", "", "Target store (defaults to --store)")
	convertCmd.Flags().Bool("no-clobber", false, "Fail instead of replacing an existing target")
	rootCmd.AddCommand(convertCmd)

	return rootCmd
}
