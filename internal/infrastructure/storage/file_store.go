package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

// FileStore keeps notices in a single JSON array on disk.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ ports.NotificationStore = (*FileStore)(nil)

// NewFileStore uses path; the file is created on first save.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// All returns the stored notices. A missing, empty or corrupt file reads as
// an empty list.
func (s *FileStore) All(ctx context.Context) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save replaces the file contents.
func (s *FileStore) Save(ctx context.Context, notifications []domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(notifications)
}

// Upsert replaces the notice with the same ID or appends it.
func (s *FileStore) Upsert(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		return errors.New("upsert: notification id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == n.ID {
			all[i] = n
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, n)
	}
	return s.write(all)
}

// Delete drops the notice with id. The file is left untouched when no notice
// matches.
func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return false, err
	}
	kept := all[:0]
	for _, n := range all {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	return true, s.write(kept)
}

func (s *FileStore) read() ([]domain.Notification, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return []domain.Notification{}, nil
	}

	var out []domain.Notification
	if err := json.Unmarshal(raw, &out); err != nil {
		if s.logger != nil {
			s.logger.Warn("notifications file is not valid json, treating as empty", "path", s.path, "error", err)
		}
		return []domain.Notification{}, nil
	}
	return out, nil
}

func (s *FileStore) write(notifications []domain.Notification) error {
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	data, err := json.MarshalIndent(notifications, "", "    ")
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".notifications-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
