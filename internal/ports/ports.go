package ports

import (
	"context"
	"time"

	"golang.org/x/net/html"

	"NoticeBoard/internal/domain"
)

// NotificationSource returns the aggregated payload for a selection.
// An unscoped selection yields the selection-independent feeds only.
type NotificationSource interface {
	Fetch(ctx context.Context, sel domain.Selection) (domain.Payload, error)
}

// NotificationStore persists the raw notice list the aggregator reads from.
type NotificationStore interface {
	All(ctx context.Context) ([]domain.Notification, error)
	Save(ctx context.Context, notifications []domain.Notification) error
	Upsert(ctx context.Context, n domain.Notification) error
	// Delete removes the notice with id and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// PayloadCache keeps recently aggregated payloads keyed by selection.
type PayloadCache interface {
	Get(ctx context.Context, sel domain.Selection) (domain.Payload, bool, error)
	Set(ctx context.Context, sel domain.Selection, payload domain.Payload) error
}

// Viewport reports how much of an element is currently on screen, in [0, 1].
type Viewport interface {
	IntersectionRatio(node *html.Node) float64
}

// Scheduler controls when background jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
