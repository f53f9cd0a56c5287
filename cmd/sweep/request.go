package main

import (
	"context"
	"errors"
	"time"

	"tempnote-be/internal/config"
	"tempnote-be/internal/service"
	"tempnote-be/pkg/events"
	pktNats "tempnote-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Ask running servers to sweep through NATS",
	Long:  `Request publishes a NOTES_SWEEP_REQUESTED event; one server instance picks it up and sweeps.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.App.NatsURL == "" {
			return errors.New("NATS_URL is not set")
		}

		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			return err
		}
		defer pub.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		evt := events.New(service.EventNotesSweepRequested, map[string]interface{}{"requested_by": "sweep-cli"})
		if err := pub.Publish(ctx, evt); err != nil {
			color.Red("Failed to publish sweep request: %v", err)
			return err
		}
		color.Green("Sweep requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
}
