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

// ArchiveSweeper moves notices past their end time into the archive.
type ArchiveSweeper struct {
	store  ports.NotificationStore
	now    func() time.Time
	logger *slog.Logger
}

// NewArchiveSweeper builds a sweeper; now defaults to the UTC wall clock.
func NewArchiveSweeper(store ports.NotificationStore, now func() time.Time, logger *slog.Logger) *ArchiveSweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ArchiveSweeper{store: store, now: now, logger: logger}
}

// Sweep rewrites expired notices with the archive type and returns how many
// changed. The store is only written when something changed.
func (s *ArchiveSweeper) Sweep(ctx context.Context) (int, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load notifications: %w", err)
	}

	now := s.now()
	changed := 0
	for i := range all {
		if feed.Expired(all[i], now) {
			all[i].Type = domain.TypeArchive
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	if err := s.store.Save(ctx, all); err != nil {
		return 0, fmt.Errorf("save archived notifications: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("archived expired notifications", "count", changed)
	}
	return changed, nil
}
