package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/audionav/govorun/internal/speech"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report synthesis usage and remaining quota",
	Long: "Prints the locally tracked per-backend request and character counts.\n" +
		"When a usage-reporting endpoint is configured it also queries the\n" +
		"provider's own billing-period numbers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		records := a.usage.Records()
		if len(records) == 0 {
			fmt.Fprintln(out, "no synthesis recorded yet")
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s: total %s requests / %s chars, today %s requests / %s chars\n",
				r.Backend,
				humanize.Comma(r.TotalRequests), humanize.Comma(r.TotalChars),
				humanize.Comma(r.TodayRequests), humanize.Comma(r.TodayChars))
		}

		limits := map[string]int64{
			"google": a.cfg.GoogleDailyCharLimit,
			"gtts":   a.cfg.GTTSDailyCharLimit,
		}
		for backend, limit := range limits {
			if limit <= 0 {
				continue
			}
			used := a.usage.TodayChars(backend)
			fmt.Fprintf(out, "%s daily limit: %s of %s chars used\n",
				backend, humanize.Comma(used), humanize.Comma(limit))
		}

		if a.cfg.GoogleUsageURL != "" {
			report, err := speech.NewQuotaClient(a.cfg.GoogleUsageURL).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("usage report: %w", err)
			}
			fmt.Fprintf(out, "provider period: %s of %s chars used, %s remaining\n",
				humanize.Comma(report.UsedChars), humanize.Comma(report.LimitChars),
				humanize.Comma(report.Remaining()))
		}

		stats := a.store.Stats()
		fmt.Fprintf(out, "cache this run: %d hits, %d misses, %d renders, %d errors\n",
			stats.Hits, stats.Misses, stats.Renders, stats.Errors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
