package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thannaske/s3monitor/pkg/monitor"
	"github.com/thannaske/s3monitor/pkg/storage"
)

var (
	// Flag to confirm cleanup without prompting
	confirm bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Abort incomplete multipart uploads now",
	Long: `Abort every incomplete multipart upload in all monitored buckets, without
waiting for the scheduled cleanup day. Abandoned uploads keep consuming storage
until they are removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}

		if !confirm {
			fmt.Fprint(cmd.OutOrStdout(), "This will permanently abort all incomplete multipart uploads.\n"+
				"Are you sure you want to continue? (y/N): ")

			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			response = strings.TrimSpace(response)
			if response != "y" && response != "Y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cleanup cancelled.")
				return nil
			}
		}

		st, err := storage.New(config, logger)
		if err != nil {
			return err
		}

		summary, err := monitor.New(st, nil, nil, nil, logger).Cleanup(cmd.Context(), config.RunContext(time.Now()))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Aborted %d incomplete upload(s).\n", summary.CleanedUploads)
		if len(summary.CleanupFailed) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Cleanup failed for: %s\n", strings.Join(summary.CleanupFailed, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm cleanup without prompting")
}
