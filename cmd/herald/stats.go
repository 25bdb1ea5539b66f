package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/pearcec/herald/internal/engine"
)

var (
	statsLimit   int
	statsJSONOut bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recent sends and dispatch failures",
	Long: `Show the most recent notification sends and dispatch failures from
the audit logs.

Examples:
  herald stats
  herald stats --limit=50 --json`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "Number of entries per log")
	statsCmd.Flags().BoolVar(&statsJSONOut, "json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	e := engine.New(svc.store, svc.notifier, svc.composer, svc.cfg.Notify.Topic, clock.WallClock)
	stats, err := e.RecentStats(ctx, statsLimit)
	if err != nil {
		return err
	}

	if statsJSONOut {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(stats.Sends) == 0 {
		fmt.Println("No recent sends.")
	} else {
		fmt.Printf("Recent sends (%d):\n", len(stats.Sends))
		for _, s := range stats.Sends {
			fmt.Printf("  %s  %-14s %s\n", s.SentAt.Format(time.RFC3339), s.Kind, s.Title)
		}
	}

	if len(stats.Errors) == 0 {
		fmt.Println("No recent failures.")
	} else {
		fmt.Printf("Recent failures (%d):\n", len(stats.Errors))
		for _, f := range stats.Errors {
			fmt.Printf("  %s  %s: %s\n", f.FailedAt.Format(time.RFC3339), f.Title, f.Error)
		}
	}
	return nil
}
