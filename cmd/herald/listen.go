package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/pearcec/herald/internal/engine"
	"github.com/pearcec/herald/internal/metrics"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Watch the change stream and notify on new or rescheduled events",
	Long: `Watch the events collection for changes and broadcast a push
notification for every genuinely new event and every date change. The
listener survives stream failures by resubscribing, and it never re-notifies
for changes it has already covered, even across restarts.

Runs until interrupted.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	if addr := svc.cfg.Metrics.Addr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Printf("[listen] metrics on %s/metrics", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("[listen] metrics server: %v", err)
			}
		}()
	}

	e := engine.New(svc.store, svc.notifier, svc.composer, svc.cfg.Notify.Topic, clock.WallClock)
	log.Printf("[listen] Herald listening on project %s", svc.cfg.Firebase.ProjectID)

	err = e.Run(ctx)
	if ctx.Err() != nil {
		log.Println("[listen] shutdown requested, stopping")
		return nil
	}
	return err
}
