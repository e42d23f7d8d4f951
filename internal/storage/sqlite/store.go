// Package sqlite provides the embedded SQLite backend (modernc.org/sqlite, pure Go).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
	"timekeeper/internal/storage/sqlite/migrations"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, applies PRAGMAs and
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// Single connection: SQLite is a single-writer engine and PRAGMAs are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// --- events ---

func (s *Store) InsertEvent(ctx context.Context, ev models.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+storage.EventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		storage.EventArgs(ev)...,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storage.EventColumns+` FROM events WHERE id = ?`, id)
	ev, err := storage.ScanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.queryEvents(ctx, `SELECT `+storage.EventColumns+` FROM events ORDER BY id`)
}

func (s *Store) ListUserEventsAfter(ctx context.Context, userID string, afterMs int64) ([]models.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+storage.EventColumns+` FROM events WHERE user_id = ? AND end_time > ? ORDER BY end_time, id`,
		userID, afterMs,
	)
}

func (s *Store) ListEventsEndingBy(ctx context.Context, byMs int64) ([]models.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+storage.EventColumns+` FROM events WHERE end_time <= ? ORDER BY end_time, id`,
		byMs,
	)
}

func (s *Store) CountUserEventsAfter(ctx context.Context, userID string, afterMs int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = ? AND end_time > ?`, userID, afterMs,
	).Scan(&n)
	return n, err
}

func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]models.Event, 0)
	for rows.Next() {
		ev, err := storage.ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		user     models.User
		timezone sql.NullString
		kind     int64
		order    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, timezone, premium_kind, premium_order FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &timezone, &kind, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.Timezone = timezone.String
	if user.Premium, err = models.PremiumFromParts(models.PremiumKind(kind), order.String); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}

	presets, err := s.presetsByUser(ctx, `WHERE user_id = ?`, id)
	if err != nil {
		return nil, err
	}
	user.Presets = presets[id]
	if user.Presets == nil {
		user.Presets = []models.Preset{}
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timezone, premium_kind, premium_order FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]models.User, 0)
	for rows.Next() {
		var (
			user     models.User
			timezone sql.NullString
			kind     int64
			order    sql.NullString
		)
		if err := rows.Scan(&user.ID, &timezone, &kind, &order); err != nil {
			return nil, err
		}
		user.Timezone = timezone.String
		if user.Premium, err = models.PremiumFromParts(models.PremiumKind(kind), order.String); err != nil {
			return nil, fmt.Errorf("user %s: %w", user.ID, err)
		}
		res = append(res, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the only connection before the presets query.
	_ = rows.Close()

	presets, err := s.presetsByUser(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Presets = presets[res[i].ID]
		if res[i].Presets == nil {
			res[i].Presets = []models.Preset{}
		}
	}
	return res, nil
}

func (s *Store) presetsByUser(ctx context.Context, where string, args ...any) (map[string][]models.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, tag, data FROM user_presets `+where+` ORDER BY user_id, position`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string][]models.Preset)
	for rows.Next() {
		var userID, tag, data string
		if err := rows.Scan(&userID, &tag, &data); err != nil {
			return nil, err
		}
		p, err := storage.DecodePreset(tag, []byte(data))
		if err != nil {
			return nil, fmt.Errorf("decode preset %s/%s: %w", userID, tag, err)
		}
		res[userID] = append(res[userID], p)
	}
	return res, rows.Err()
}

func (s *Store) InsertPreset(ctx context.Context, userID string, preset models.Preset) error {
	data, err := storage.EncodePresetFields(preset)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		userID, time.Now().UTC().UnixMilli(),
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_presets (user_id, tag, position, data)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM user_presets WHERE user_id = ?), ?)`,
		userID, preset.Tag, userID, string(data),
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeletePreset(ctx context.Context, userID, tag string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_presets WHERE user_id = ? AND tag = ?`, userID, tag)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) SetTimezone(ctx context.Context, userID, timezone string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, timezone, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET timezone = excluded.timezone`,
		userID, storage.NullString(timezone), time.Now().UTC().UnixMilli(),
	)
	return err
}

func (s *Store) SetPremium(ctx context.Context, userID string, premium models.PremiumStatus) error {
	kind, order := storage.PremiumArgs(premium)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, premium_kind, premium_order, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET premium_kind = excluded.premium_kind, premium_order = excluded.premium_order`,
		userID, kind, order, time.Now().UTC().UnixMilli(),
	)
	return err
}

func (s *Store) RestoreUser(ctx context.Context, user models.User) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	kind, order := storage.PremiumArgs(user.Premium)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, timezone, premium_kind, premium_order, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		user.ID, storage.NullString(user.Timezone), kind, order, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	for i, p := range user.Presets {
		data, err := storage.EncodePresetFields(p)
		if err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_presets (user_id, tag, position, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, tag) DO NOTHING`,
			user.ID, p.Tag, i+1, string(data),
		); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

var _ storage.Store = (*Store)(nil)
