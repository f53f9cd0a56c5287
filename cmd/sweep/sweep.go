package main

import (
	"errors"
	"fmt"
	"time"

	"tempnote-be/internal/bootstrap"
	"tempnote-be/internal/config"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/internal/service"
	"tempnote-be/pkg/database"
	pktNats "tempnote-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return errors.New("DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, verbose)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	ctx := cmd.Context()

	// Live views on running servers learn about deletions through the relay.
	feed := realtime.NewFeed(realtime.NewPubSub(watermill.NopLogger{}), realtime.DefaultTopic, "sweep-cli", log)
	if err := feed.Start(ctx); err != nil {
		return err
	}
	if cfg.App.RedisURL != "" {
		rdb := bootstrap.NewRedisClient(cfg.App.RedisURL, log)
		defer rdb.Close()
		feed.SetRelay(realtime.NewRedisRelay(rdb, realtime.DefaultRelayChannel, feed, log))
	}

	var publisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			color.Yellow("NATS unavailable, NOTES_SWEPT will not be published: %v", err)
		} else {
			defer natsPub.Close()
			publisher = natsPub
		}
	}

	sweeper := service.NewSweeperService(unitofwork.NewRepositoryFactory(db), feed, publisher, log, time.Now)

	if dryRun {
		pending, err := sweeper.Pending(ctx)
		if err != nil {
			color.Red("Failed to count expired notes: %v", err)
			return err
		}
		color.Yellow("%d expired notes would be deleted", pending)
		return nil
	}

	deleted, err := sweeper.Sweep(ctx)
	if err != nil {
		color.Red("Failed to clean up expired notes: %v", err)
		return err
	}
	color.Green("Expired notes cleaned up successfully (deleted: %d)", deleted)
	return nil
}
