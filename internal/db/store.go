package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store provides read-write access to the alarm database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "alarmclock", "alarms.db")
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	if err := Migrate(db, Migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateAlarm inserts a as an active alarm and returns it with its new ID.
func (s *Store) CreateAlarm(ctx context.Context, a Alarm) (Alarm, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alarms (time, sound_path, note, active, snooze_count)
		VALUES (?, ?, ?, 1, 0)
	`, a.Time, a.SoundPath, a.Note)
	if err != nil {
		return Alarm{}, fmt.Errorf("insert alarm: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Alarm{}, fmt.Errorf("insert alarm: %w", err)
	}
	a.ID = id
	a.Active = true
	a.SnoozeCount = 0
	return a, nil
}

// ActiveAlarms returns every active alarm in creation order.
func (s *Store) ActiveAlarms(ctx context.Context) ([]Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, COALESCE(sound_path, ''), COALESCE(note, ''), active, COALESCE(snooze_count, 0)
		FROM alarms
		WHERE active = 1
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []Alarm
	for rows.Next() {
		var a Alarm
		if err := rows.Scan(&a.ID, &a.Time, &a.SoundPath, &a.Note, &a.Active, &a.SnoozeCount); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// Alarm returns the alarm with the given ID regardless of its active flag,
// or nil if there is none.
func (s *Store) Alarm(ctx context.Context, id int64) (*Alarm, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, time, COALESCE(sound_path, ''), COALESCE(note, ''), active, COALESCE(snooze_count, 0)
		FROM alarms
		WHERE id = ?
	`, id)

	var a Alarm
	if err := row.Scan(&a.ID, &a.Time, &a.SoundPath, &a.Note, &a.Active, &a.SnoozeCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan alarm: %w", err)
	}
	return &a, nil
}

// UpdateAlarmTime moves an alarm to t and counts the change as a snooze.
func (s *Store) UpdateAlarmTime(ctx context.Context, id int64, t TimeOfDay) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE alarms
		SET time = ?, snooze_count = COALESCE(snooze_count, 0) + 1
		WHERE id = ?
	`, t, id); err != nil {
		return fmt.Errorf("update alarm time: %w", err)
	}
	return nil
}

// DeactivateAlarm marks an alarm inactive. Deactivating twice is harmless.
func (s *Store) DeactivateAlarm(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE alarms SET active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deactivate alarm: %w", err)
	}
	return nil
}

// Setting returns the value stored under key and whether it was present.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query setting %s: %w", key, err)
	}
	return value.String, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return fmt.Errorf("store setting %s: %w", key, err)
	}
	return nil
}
