package service

import (
	"context"

	"tempnote-be/internal/pkg/logger"
	"tempnote-be/pkg/events"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("tempnote-be/internal/service")

const (
	EventNoteCreated         = "NOTE_CREATED"
	EventNoteDeleted         = "NOTE_DELETED"
	EventNoteMadePermanent   = "NOTE_MADE_PERMANENT"
	EventNotesSwept          = "NOTES_SWEPT"
	EventNotesSweepRequested = "NOTES_SWEEP_REQUESTED"
	EventUserRegistered      = "USER_REGISTERED"
)

// EventPublisher sends domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publishDomainEvent is best effort: the bus is auxiliary to the store.
func publishDomainEvent(ctx context.Context, pub EventPublisher, log logger.ILogger, eventType string, data map[string]interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events.New(eventType, data)); err != nil {
		log.Warn("Events", "Failed to publish domain event", map[string]interface{}{"type": eventType, "error": err})
	}
}
