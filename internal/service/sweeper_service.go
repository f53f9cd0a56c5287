package service

import (
	"context"
	"fmt"
	"time"

	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/specification"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/pkg/events"
	pktNats "tempnote-be/pkg/nats"
)

const sweepTriggerDurable = "tempnote-sweeper"

// TriggerSource delivers sweep requests from the message bus.
type TriggerSource interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// ISweeperService removes anonymous notes whose expiry has passed.
type ISweeperService interface {
	Sweep(ctx context.Context) (int, error)
	Pending(ctx context.Context) (int64, error)
	Run(ctx context.Context, interval time.Duration)
	ListenForTriggers(source TriggerSource) error
}

type sweeperService struct {
	uowFactory     unitofwork.RepositoryFactory
	feed           *realtime.Feed
	eventPublisher EventPublisher
	logger         logger.ILogger
	now            func() time.Time
}

func NewSweeperService(
	uowFactory unitofwork.RepositoryFactory,
	feed *realtime.Feed,
	eventPublisher EventPublisher,
	log logger.ILogger,
	now func() time.Time,
) ISweeperService {
	if now == nil {
		now = time.Now
	}
	return &sweeperService{
		uowFactory:     uowFactory,
		feed:           feed,
		eventPublisher: eventPublisher,
		logger:         log,
		now:            now,
	}
}

func expiredAnonymous(now time.Time) []specification.Specification {
	return []specification.Specification{
		specification.Anonymous{},
		specification.ExpiredBefore{Now: now},
	}
}

// Sweep deletes every anonymous note with expires_at before now and returns
// how many were removed. Running it again immediately removes nothing.
func (s *sweeperService) Sweep(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "SweeperService.Sweep")
	defer span.End()

	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.NoteRepository().DeleteAll(ctx, expiredAnonymous(now)...)
	if err != nil {
		s.logger.Error("Sweeper", "Failed to clean up expired notes", map[string]interface{}{"error": err})
		return 0, fmt.Errorf("sweep expired notes: %w", err)
	}

	for _, n := range deleted {
		if err := s.feed.Publish(ctx, realtime.Deleted(n)); err != nil {
			s.logger.Warn("Sweeper", "Failed to publish delete event", map[string]interface{}{"note_id": n.Id, "error": err})
		}
	}

	if len(deleted) > 0 {
		s.logger.Info("Sweeper", "Expired notes cleaned up", map[string]interface{}{"deleted": len(deleted), "cutoff": now})
		publishDomainEvent(ctx, s.eventPublisher, s.logger, EventNotesSwept, map[string]interface{}{
			"deleted": len(deleted),
			"cutoff":  now,
		})
	}
	return len(deleted), nil
}

// Pending counts the notes the next sweep would remove.
func (s *sweeperService) Pending(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NoteRepository().Count(ctx, expiredAnonymous(s.now())...)
}

// Run sweeps on every tick until ctx is cancelled.
func (s *sweeperService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper", "Interval sweeper started", map[string]interface{}{"interval": interval.String()})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Sweeper", "Interval sweep failed", map[string]interface{}{"error": err})
			}
		}
	}
}

func (s *sweeperService) ListenForTriggers(source TriggerSource) error {
	subject := "events." + EventNotesSweepRequested
	return source.Subscribe(subject, sweepTriggerDurable, func(ctx context.Context, event events.Event) error {
		_, err := s.Sweep(ctx)
		return err
	})
}
