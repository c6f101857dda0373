package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Project represents a cached GitLab project row
type Project struct {
	ID             int64
	Name           string
	Path           string
	FullPath       string
	WebURL         string
	Description    *string
	LastActivityAt *time.Time

	// Namespace is the scope label the project was last observed under.
	Namespace string

	// UpdatedAt advances only when a refresh supplies a differing value for
	// any semantic field. LastSeenAt advances on every observation.
	UpdatedAt  time.Time
	LastSeenAt time.Time
}

// ProjectRepository provides operations on the projects table
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// UpsertPage stores all rows of one fetched page in a single transaction:
// either the whole page commits or none of it does. Re-applying an identical
// page is idempotent except that last_seen_at always advances.
func (r *ProjectRepository) UpsertPage(projects []Project) error {
	if len(projects) == 0 {
		return nil
	}

	now := r.db.now().UTC()
	return r.db.WithTx(func(tx *sql.Tx) error {
		for i := range projects {
			if err := upsertOne(tx, &projects[i], now); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertOne(tx *sql.Tx, p *Project, now time.Time) error {
	var (
		name, path, fullPath, webURL, namespace string
		description, lastActivity               sql.NullString
		updatedAt                               string
	)

	err := tx.QueryRow(`
		SELECT name, path, full_path, web_url, description, last_activity_at, namespace, updated_at
		FROM projects WHERE id = ?
	`, p.ID).Scan(&name, &path, &fullPath, &webURL, &description, &lastActivity, &namespace, &updatedAt)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO projects (id, name, path, full_path, web_url, description, last_activity_at, namespace, updated_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.Path, p.FullPath, p.WebURL,
			strPtrToNull(p.Description), timePtrToNull(p.LastActivityAt),
			p.Namespace, now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to insert project %d: %w", p.ID, err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("failed to read project %d: %w", p.ID, err)
	}

	changed := name != p.Name ||
		path != p.Path ||
		fullPath != p.FullPath ||
		webURL != p.WebURL ||
		!nullStrEqual(description, p.Description) ||
		!nullTimeEqual(lastActivity, p.LastActivityAt) ||
		namespace != p.Namespace

	newUpdatedAt := updatedAt
	if changed {
		newUpdatedAt = now.Format(time.RFC3339)
	}

	_, err = tx.Exec(`
		UPDATE projects
		SET name = ?, path = ?, full_path = ?, web_url = ?, description = ?,
		    last_activity_at = ?, namespace = ?, updated_at = ?, last_seen_at = ?
		WHERE id = ?
	`, p.Name, p.Path, p.FullPath, p.WebURL,
		strPtrToNull(p.Description), timePtrToNull(p.LastActivityAt),
		p.Namespace, newUpdatedAt, now.Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project %d: %w", p.ID, err)
	}
	return nil
}

// Count returns the number of cached projects
func (r *ProjectRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// List returns every cached project ordered by full_path ascending
func (r *ProjectRepository) List() ([]Project, error) {
	rows, err := r.db.Query(`
		SELECT id, name, path, full_path, web_url, description, last_activity_at, namespace, updated_at, last_seen_at
		FROM projects
		ORDER BY full_path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var (
			p                         Project
			description, lastActivity sql.NullString
			updatedAt, lastSeenAt     string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Path, &p.FullPath, &p.WebURL,
			&description, &lastActivity, &p.Namespace, &updatedAt, &lastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if description.Valid {
			p.Description = &description.String
		}
		if lastActivity.Valid {
			if t, err := time.Parse(time.RFC3339, lastActivity.String); err == nil {
				p.LastActivityAt = &t
			}
		}
		if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("invalid updated_at for project %d: %w", p.ID, err)
		}
		if p.LastSeenAt, err = time.Parse(time.RFC3339, lastSeenAt); err != nil {
			return nil, fmt.Errorf("invalid last_seen_at for project %d: %w", p.ID, err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get returns a single project by full path, or nil when absent
func (r *ProjectRepository) Get(fullPath string) (*Project, error) {
	projects, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].FullPath == fullPath {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// Prune deletes every project not observed for more than staleDays days and
// returns the number of rows removed. Only the refresh orchestrator calls
// this, and only after a fully successful cycle.
func (r *ProjectRepository) Prune(staleDays int) (int, error) {
	cutoff := r.db.now().UTC().AddDate(0, 0, -staleDays).Format(time.RFC3339)
	res, err := r.db.Exec("DELETE FROM projects WHERE last_seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune projects: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func strPtrToNull(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func timePtrToNull(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// nullStrEqual compares a stored nullable column against an incoming
// pointer. NULL and the empty string are distinct values.
func nullStrEqual(old sql.NullString, cur *string) bool {
	if old.Valid != (cur != nil) {
		return false
	}
	return !old.Valid || old.String == *cur
}

func nullTimeEqual(old sql.NullString, cur *time.Time) bool {
	if old.Valid != (cur != nil) {
		return false
	}
	return !old.Valid || old.String == cur.UTC().Format(time.RFC3339)
}
