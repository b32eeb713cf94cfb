package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/feed"
	"NoticeBoard/internal/ports"
)

// BoardDeps wires the driven adapters of the board query.
type BoardDeps struct {
	Store  ports.NotificationStore
	Cache  ports.PayloadCache
	Now    func() time.Time
	Logger *slog.Logger
}

// Board answers aggregated feed queries from the store.
type Board struct {
	store  ports.NotificationStore
	cache  ports.PayloadCache
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.NotificationSource = (*Board)(nil)

// NewBoard constructs the query use case.
func NewBoard(deps BoardDeps) *Board {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Board{
		store:  deps.Store,
		cache:  deps.Cache,
		now:    now,
		logger: deps.Logger,
	}
}

// Fetch aggregates the stored notices for sel. Cache failures are logged and
// bypassed.
func (b *Board) Fetch(ctx context.Context, sel domain.Selection) (domain.Payload, error) {
	if !sel.Scoped() {
		sel = domain.Selection{}
	}

	if b.cache != nil {
		payload, ok, err := b.cache.Get(ctx, sel)
		switch {
		case err != nil:
			b.warn("payload cache read failed", "error", err)
		case ok:
			return payload, nil
		}
	}

	if b.store == nil {
		return domain.Payload{}, fmt.Errorf("notification store is not configured")
	}
	all, err := b.store.All(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("load notifications: %w", err)
	}

	payload := feed.Aggregate(all, b.now(), sel)

	if b.cache != nil {
		if err := b.cache.Set(ctx, sel, payload); err != nil {
			b.warn("payload cache write failed", "error", err)
		}
	}
	return payload, nil
}

func (b *Board) warn(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
