package services

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Routing keys for blog lifecycle events.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
)

// EventPublisher delivers lifecycle events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// Event is the JSON body of every published message.
type Event struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     uint      `json:"user_id"`
	PostID     uint      `json:"post_id,omitempty"`
	Slug       string    `json:"slug,omitempty"`
}

// publishEvent sends ev when a publisher is configured. Failures are logged
// and never reach the caller: the store already holds the committed change.
func publishEvent(publisher EventPublisher, logger *slog.Logger, ev Event) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		logger.Error("failed to marshal event", slog.String("event", ev.Event), slog.Any("error", err))
		return
	}
	if err := publisher.Publish(ev.Event, body); err != nil {
		logger.Warn("failed to publish event",
			slog.String("event", ev.Event),
			slog.Uint64("user_id", uint64(ev.UserID)),
			slog.Any("error", err),
		)
		return
	}
	logger.Debug("event published", slog.String("event", ev.Event))
}
