package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Meta keys used by the refresh orchestrator
const (
	// MetaLastRefreshStartedAt is written at the start of every cycle
	MetaLastRefreshStartedAt = "last_refresh_started_at"
	// MetaLastFullRefreshAt is written only after a fully successful cycle
	MetaLastFullRefreshAt = "last_full_refresh_at"
)

// MetaRepository provides singleton key/value metadata operations
type MetaRepository struct {
	db *DB
}

// NewMetaRepository creates a new meta repository
func NewMetaRepository(db *DB) *MetaRepository {
	return &MetaRepository{db: db}
}

// Get returns the value for key; found is false when the key is absent
func (r *MetaRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read meta %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing value
func (r *MetaRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// GetTime returns the value for key parsed as RFC3339; found is false when
// the key is absent
func (r *MetaRepository) GetTime(key string) (time.Time, bool, error) {
	value, found, err := r.Get(key)
	if err != nil || !found {
		return time.Time{}, found, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid timestamp in meta %q: %w", key, err)
	}
	return t, true, nil
}

// SetTime stores t under key in RFC3339 format
func (r *MetaRepository) SetTime(key string, t time.Time) error {
	return r.Set(key, t.UTC().Format(time.RFC3339))
}
