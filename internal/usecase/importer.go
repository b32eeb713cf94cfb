package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

// Import upserts a JSON array of notices into store. Notices without an ID
// get a random UUID. It returns the number of notices written.
func Import(ctx context.Context, store ports.NotificationStore, r io.Reader) (int, error) {
	var incoming []domain.Notification
	if err := json.NewDecoder(r).Decode(&incoming); err != nil {
		return 0, fmt.Errorf("decode notifications: %w", err)
	}

	for i, n := range incoming {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if err := store.Upsert(ctx, n); err != nil {
			return i, fmt.Errorf("import %q: %w", n.Title, err)
		}
	}
	return len(incoming), nil
}
