package store

import (
	"database/sql"
	"fmt"
)

// ContextRepository manages the stored set of full_path prefixes used to
// narrow the selection view
type ContextRepository struct {
	db *DB
}

// NewContextRepository creates a new context prefix repository
func NewContextRepository(db *DB) *ContextRepository {
	return &ContextRepository{db: db}
}

// Add inserts prefixes into the set. Duplicates are no-ops.
func (r *ContextRepository) Add(prefixes []string) error {
	if len(prefixes) == 0 {
		return nil
	}
	return r.db.WithTx(func(tx *sql.Tx) error {
		for _, prefix := range prefixes {
			if _, err := tx.Exec(`
				INSERT INTO context_prefixes (prefix) VALUES (?)
				ON CONFLICT(prefix) DO NOTHING
			`, prefix); err != nil {
				return fmt.Errorf("failed to add context prefix %q: %w", prefix, err)
			}
		}
		return nil
	})
}

// List returns all stored prefixes in ascending order
func (r *ContextRepository) List() ([]string, error) {
	rows, err := r.db.Query("SELECT prefix FROM context_prefixes ORDER BY prefix ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list context prefixes: %w", err)
	}
	defer rows.Close()

	var prefixes []string
	for rows.Next() {
		var prefix string
		if err := rows.Scan(&prefix); err != nil {
			return nil, fmt.Errorf("failed to scan context prefix: %w", err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, rows.Err()
}

// Clear removes every stored prefix
func (r *ContextRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM context_prefixes"); err != nil {
		return fmt.Errorf("failed to clear context prefixes: %w", err)
	}
	return nil
}
