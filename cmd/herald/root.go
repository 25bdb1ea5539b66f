package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "herald",
	Short: "Push notifications for the community events calendar",
	Long: `Herald watches the events collection and broadcasts push
notifications for new and rescheduled events, plus daily reminder digests.

  listen    Watch the change stream and notify on new/rescheduled events
  remind    Run the daily today/tomorrow digest schedule
  notify    Force a notification for one event
  stats     Show recent sends and dispatch failures`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Override config file location")
}
