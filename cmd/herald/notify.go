package main

import (
	"context"
	"fmt"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/pearcec/herald/internal/engine"
)

var notifyCmd = &cobra.Command{
	Use:   "notify <event-id>",
	Short: "Force a notification for one event",
	Long: `Send the new-event notification for a single event immediately,
whether or not it has been notified before. Useful after editing an event's
copy or image.

Example:
  herald notify 8WfTDaq2ZkXp`,
	Args: cobra.ExactArgs(1),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	e := engine.New(svc.store, svc.notifier, svc.composer, svc.cfg.Notify.Topic, clock.WallClock)
	if err := e.NotifyEvent(ctx, args[0]); err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("no event with id %q", args[0])
		}
		return fmt.Errorf("notification failed: %w", err)
	}
	fmt.Printf("Notification sent for event %s\n", args[0])
	return nil
}
