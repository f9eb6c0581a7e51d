package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs export and session
// lifecycle events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type)).
			Str("session_id", event.SessionID)

		switch payload := event.Payload.(type) {
		case models.ExportState:
			logEvent = logEvent.Str("status", string(payload.Status))
			if payload.Filename != "" {
				logEvent = logEvent.Str("filename", payload.Filename)
			}
			if payload.Error != "" {
				logEvent = logEvent.Str("error", payload.Error)
			}
		case models.SessionView:
			logEvent = logEvent.
				Int("page_count", payload.PageCount).
				Int("current_page", payload.CurrentPage)
		}

		logEvent.Msg("Event published")
		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to the lifecycle event types.
// Session updates are excluded since they fire on every mutation.
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventExportStatus,
		interfaces.EventSessionClosed,
	}

	for _, eventType := range eventTypes {
		if _, err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to lifecycle events")

	return nil
}
