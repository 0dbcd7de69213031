package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the change notification broadcast after a committed mutation.
// Routing keys follow "<entity>.<what>", e.g. "project.updated",
// "application.workflow".
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier is the notification fan-out collaborator. Delivery is
// best-effort; the services log publish failures and move on.
type Notifier interface {
	PublishJSON(ctx context.Context, routingKey string, payload any) error
}

// DocumentGenerator is the document-generation collaborator triggered by an
// approval. The request is fire-and-forget relative to the workflow commit.
type DocumentGenerator interface {
	Request(applicationID uint, outputPathHint string)
}

// notify publishes an event and swallows any failure. A nil notifier (MQ
// not configured) is a no-op.
func notify(ctx context.Context, n Notifier, log *zap.Logger, eventType string, payload any) {
	if n == nil {
		return
	}
	ev := Event{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
	if err := n.PublishJSON(ctx, eventType, ev); err != nil {
		log.Sugar().Warnw("event publish failed", "type", eventType, "err", err)
	}
}
