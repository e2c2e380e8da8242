package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cheynewallace/tabby"
	"github.com/logrusorgru/aurora/v4"
	"github.com/spf13/cobra"

	"github.com/thannaske/s3monitor/pkg/models"
	"github.com/thannaske/s3monitor/pkg/monitor"
	"github.com/thannaske/s3monitor/pkg/storage"
)

var noColor bool

// formatSize converts bytes to a human-readable format
func formatSize(bytes float64) string {
	const (
		_          = iota
		KB float64 = 1 << (10 * iota)
		MB
		GB
		TB
		PB
	)

	unit := ""
	value := bytes

	switch {
	case bytes >= PB:
		unit = "PB"
		value = bytes / PB
	case bytes >= TB:
		unit = "TB"
		value = bytes / TB
	case bytes >= GB:
		unit = "GB"
		value = bytes / GB
	case bytes >= MB:
		unit = "MB"
		value = bytes / MB
	case bytes >= KB:
		unit = "KB"
		value = bytes / KB
	default:
		unit = "bytes"
	}

	if unit == "bytes" {
		return fmt.Sprintf("%.0f %s", value, unit)
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "Show the current size of every bucket",
	Long: `Measure all monitored buckets and print their sizes, largest first.
Buckets above the warning threshold are highlighted. No notifications are sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}

		st, err := storage.New(config, logger)
		if err != nil {
			return err
		}

		mon := monitor.New(st, nil, nil, nil, logger)
		rc := config.RunContext(time.Now())

		buckets, _, err := mon.ResolveBuckets(cmd.Context(), rc)
		if err != nil {
			return err
		}
		report, failed := mon.MeasureSizes(cmd.Context(), rc, buckets)

		printSizes(cmd.OutOrStdout(), rc, report, failed, aurora.New(aurora.WithColors(!noColor)))
		return nil
	},
}

func printSizes(w io.Writer, rc models.RunContext, report *models.BucketSizeReport, failed []string, au *aurora.Aurora) {
	if report.Len() == 0 && len(failed) == 0 {
		fmt.Fprintln(w, "No buckets found.")
		return
	}

	sizes := report.Entries()
	// Sort by size (largest first)
	sort.SliceStable(sizes, func(i, j int) bool {
		return sizes[i].SizeBytes > sizes[j].SizeBytes
	})

	t := tabby.NewCustom(tabwriter.NewWriter(w, 0, 0, 3, ' ', 0))
	t.AddHeader("BUCKET", "SIZE", "GB", "STATUS")
	for _, s := range sizes {
		status := "ok"
		if monitor.ExceedsThreshold(rc, s) {
			status = au.Red("over threshold").String()
		}
		t.AddLine(s.BucketName, formatSize(float64(s.SizeBytes)), fmt.Sprintf("%.2f", s.SizeGB), status)
	}
	for _, b := range failed {
		t.AddLine(b, "-", "-", au.Yellow("unavailable").String())
	}
	t.Print()
}

func init() {
	rootCmd.AddCommand(sizesCmd)

	sizesCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
