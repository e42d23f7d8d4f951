// Package postgres provides the PostgreSQL backend built on pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool, fails fast if the database is unreachable
// and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- events ---

func (s *Store) InsertEvent(ctx context.Context, ev models.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (`+storage.EventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		storage.EventArgs(ev)...,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+storage.EventColumns+` FROM events WHERE id = $1`, id)
	ev, err := storage.ScanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.queryEvents(ctx, `SELECT `+storage.EventColumns+` FROM events ORDER BY id`)
}

func (s *Store) ListUserEventsAfter(ctx context.Context, userID string, afterMs int64) ([]models.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+storage.EventColumns+` FROM events WHERE user_id = $1 AND end_time > $2 ORDER BY end_time, id`,
		userID, afterMs,
	)
}

func (s *Store) ListEventsEndingBy(ctx context.Context, byMs int64) ([]models.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+storage.EventColumns+` FROM events WHERE end_time <= $1 ORDER BY end_time, id`,
		byMs,
	)
}

func (s *Store) CountUserEventsAfter(ctx context.Context, userID string, afterMs int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = $1 AND end_time > $2`, userID, afterMs,
	).Scan(&n)
	return n, err
}

func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	return res, rows.Err()
}

// --- users ---

func scanUser(row storage.RowScanner) (models.User, error) {
	var (
		user     models.User
		timezone *string
		kind     int16
		order    *string
	)
	if err := row.Scan(&user.ID, &timezone, &kind, &order); err != nil {
		return models.User{}, err
	}
	if timezone != nil {
		user.Timezone = *timezone
	}
	orderID := ""
	if order != nil {
		orderID = *order
	}
	premium, err := models.PremiumFromParts(models.PremiumKind(kind), orderID)
	if err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Premium = premium
	user.Presets = []models.Preset{}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT id, timezone, premium_kind, premium_order FROM users WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	presets, err := s.presetsByUser(ctx, `WHERE user_id = $1`, id)
	if err != nil {
		return nil, err
	}
	if p, ok := presets[id]; ok {
		user.Presets = p
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, timezone, premium_kind, premium_order FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	presets, err := s.presetsByUser(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range res {
		if p, ok := presets[res[i].ID]; ok {
			res[i].Presets = p
		}
	}
	return res, nil
}

func (s *Store) presetsByUser(ctx context.Context, where string, args ...any) (map[string][]models.Preset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, tag, data FROM user_presets `+where+` ORDER BY user_id, position`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string][]models.Preset)
	for rows.Next() {
		var (
			userID, tag string
			data        []byte
		)
		if err := rows.Scan(&userID, &tag, &data); err != nil {
			return nil, err
		}
		p, err := storage.DecodePreset(tag, data)
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return err
	}
	// Lock the user row so concurrent appends compute distinct positions.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO user_presets (user_id, tag, position, data)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM user_presets WHERE user_id = $1), $3)`,
		userID, preset.Tag, data,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeletePreset(ctx context.Context, userID, tag string) (bool, error) {
	res, err := s.pool.Exec(ctx, `DELETE FROM user_presets WHERE user_id = $1 AND tag = $2`, userID, tag)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (s *Store) SetTimezone(ctx context.Context, userID, timezone string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, timezone) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET timezone = excluded.timezone`,
		userID, storage.NullString(timezone),
	)
	return err
}

func (s *Store) SetPremium(ctx context.Context, userID string, premium models.PremiumStatus) error {
	kind, order := storage.PremiumArgs(premium)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, premium_kind, premium_order) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET premium_kind = excluded.premium_kind, premium_order = excluded.premium_order`,
		userID, kind, order,
	)
	return err
}

func (s *Store) RestoreUser(ctx context.Context, user models.User) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	kind, order := storage.PremiumArgs(user.Premium)
	res, err := tx.Exec(ctx,
		`INSERT INTO users (id, timezone, premium_kind, premium_order) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		user.ID, storage.NullString(user.Timezone), kind, order,
	)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() == 0 {
		return false, nil
	}

	for i, p := range user.Presets {
		data, err := storage.EncodePresetFields(p)
		if err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_presets (user_id, tag, position, data) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, tag) DO NOTHING`,
			user.ID, p.Tag, i+1, data,
		); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

var _ storage.Store = (*Store)(nil)
