package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	position       INTEGER NOT NULL,
	title          TEXT NOT NULL,
	body           TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT '',
	department     TEXT NOT NULL DEFAULT '[]',
	year           TEXT NOT NULL DEFAULT '[]',
	attachment_url TEXT NOT NULL DEFAULT '',
	is_popup       INTEGER NOT NULL DEFAULT 0,
	start_datetime TEXT NOT NULL DEFAULT '',
	end_datetime   TEXT NOT NULL DEFAULT ''
)`

var columns = []string{
	"id", "position", "title", "body", "type", "department", "year",
	"attachment_url", "is_popup", "start_datetime", "end_datetime",
}

// SQLiteStore persists notices in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.NotificationStore = (*SQLiteStore)(nil)

// OpenSQLite opens dsn with the pure-Go driver and creates the table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := NewSQLiteStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wires an existing sql.DB.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Migrate creates the notifications table when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// All returns notices in insertion order.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.Notification, error) {
	query, args, err := sq.Select(columns...).From("notifications").OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}

	result := []domain.Notification{}
	for rows.Next() {
		var (
			n                domain.Notification
			position         int
			department, year string
		)
		if err := rows.Scan(&n.ID, &position, &n.Title, &n.Body, &n.Type, &department, &year,
			&n.AttachmentURL, &n.IsPopup, &n.StartDatetime, &n.EndDatetime); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if err := decodeAudience(department, &n.Department); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("notification %s department: %w", n.ID, err)
		}
		if err := decodeAudience(year, &n.Year); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("notification %s year: %w", n.ID, err)
		}
		result = append(result, n)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return result, nil
}

// Save replaces the whole table in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, notifications []domain.Notification) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = sq.Delete("notifications").RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	for i, n := range notifications {
		if n.ID == "" {
			return fmt.Errorf("notification %d: id is required", i)
		}
		values, vErr := rowValues(n, i)
		if vErr != nil {
			return vErr
		}
		if _, err = sq.Insert("notifications").Columns(columns...).Values(values...).RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert %s: %w", n.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Upsert inserts n at the end or updates the row with the same ID in place.
func (s *SQLiteStore) Upsert(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		return errors.New("upsert: notification id is required")
	}
	values, err := rowValues(n, 0)
	if err != nil {
		return err
	}
	values[1] = sq.Expr("(SELECT COALESCE(MAX(position), -1) + 1 FROM notifications)")

	_, err = sq.Insert("notifications").
		Columns(columns...).
		Values(values...).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			type = excluded.type,
			department = excluded.department,
			year = excluded.year,
			attachment_url = excluded.attachment_url,
			is_popup = excluded.is_popup,
			start_datetime = excluded.start_datetime,
			end_datetime = excluded.end_datetime`).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", n.ID, err)
	}
	return nil
}

// Delete removes the row with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := sq.Delete("notifications").Where(sq.Eq{"id": id}).RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	return n > 0, nil
}

func rowValues(n domain.Notification, position int) ([]interface{}, error) {
	department, err := encodeAudience(n.Department)
	if err != nil {
		return nil, fmt.Errorf("notification %s department: %w", n.ID, err)
	}
	year, err := encodeAudience(n.Year)
	if err != nil {
		return nil, fmt.Errorf("notification %s year: %w", n.ID, err)
	}
	return []interface{}{
		n.ID, position, n.Title, n.Body, n.Type, department, year,
		n.AttachmentURL, n.IsPopup, n.StartDatetime, n.EndDatetime,
	}, nil
}

func encodeAudience(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeAudience(raw string, out *[]string) error {
	if raw == "" {
		*out = nil
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return err
	}
	if len(*out) == 0 {
		*out = nil
	}
	return nil
}
