package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/pearcec/herald/internal/remind"
)

var remindNow bool

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily today/tomorrow digest schedule",
	Long: `Broadcast aggregate reminder digests for events happening today and
tomorrow. By default this registers the configured daily cron trigger and
runs until interrupted.

Examples:
  herald remind          # run on the configured schedule
  herald remind --now    # run a single digest pass and exit`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().BoolVar(&remindNow, "now", false, "Run one digest pass immediately and exit")
	rootCmd.AddCommand(remindCmd)
}

func runRemind(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	s := remind.New(svc.store, svc.notifier, svc.composer,
		svc.cfg.Notify.Topic, svc.cfg.Reminders.Cron, clock.WallClock)

	if remindNow {
		return s.RunOnce(ctx)
	}

	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	<-ctx.Done()
	log.Println("[remind] shutdown requested, stopping")
	return nil
}
