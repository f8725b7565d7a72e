package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// IncrementUsage bumps the usage count for filename by 1, creating the entry
// if absent, and returns the new count. Counts never decrease.
func (db *DB) IncrementUsage(filename string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		INSERT INTO usage_stats (filename, count) VALUES (?, 1)
		ON CONFLICT(filename) DO UPDATE SET count = count + 1
		RETURNING count
	`, filename).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: increment usage: %w", err)
	}
	return count, nil
}

// UsageCounts returns the full filename → count map.
func (db *DB) UsageCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT filename, count FROM usage_stats`)
	if err != nil {
		return nil, fmt.Errorf("store: usage counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var f string
		var c int
		if err := rows.Scan(&f, &c); err != nil {
			return nil, err
		}
		out[f] = c
	}
	return out, rows.Err()
}

// TopUsed returns the n most-used filenames, highest count first. Ties are
// broken by filename for deterministic output.
func (db *DB) TopUsed(n int) ([]models.UsageCount, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := db.conn.Query(`
		SELECT filename, count FROM usage_stats
		ORDER BY count DESC, filename ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("store: top used: %w", err)
	}
	defer rows.Close()

	var out []models.UsageCount
	for rows.Next() {
		var u models.UsageCount
		if err := rows.Scan(&u.Filename, &u.Count); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ToggleFavorite flips the favorite membership for filename and returns the
// new membership. New favorites are appended at the end of the sequence.
func (db *DB) ToggleFavorite(filename string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM favorites WHERE filename = ?`, filename).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec(`
			INSERT INTO favorites (filename, pos)
			VALUES (?, COALESCE((SELECT MAX(pos) FROM favorites), 0) + 1)
		`, filename)
		if err != nil {
			return false, fmt.Errorf("store: add favorite: %w", err)
		}
		return true, tx.Commit()
	case err != nil:
		return false, fmt.Errorf("store: check favorite: %w", err)
	default:
		if _, err := tx.Exec(`DELETE FROM favorites WHERE filename = ?`, filename); err != nil {
			return false, fmt.Errorf("store: remove favorite: %w", err)
		}
		return false, tx.Commit()
	}
}

// Favorites returns favorite filenames in insertion order.
func (db *DB) Favorites() ([]string, error) {
	rows, err := db.conn.Query(`SELECT filename FROM favorites ORDER BY pos ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: favorites: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// IsFavorite reports whether filename is currently a favorite.
func (db *DB) IsFavorite(filename string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM favorites WHERE filename = ?`, filename).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is favorite: %w", err)
	}
	return true, nil
}

// IncrementToolUse bumps the usage count for an external tool by 1 and
// returns the new count.
func (db *DB) IncrementToolUse(name string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		INSERT INTO tool_usage (name, count) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET count = count + 1
		RETURNING count
	`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: increment tool use: %w", err)
	}
	return count, nil
}

// ToolCounts returns the full tool-name → count map.
func (db *DB) ToolCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT name, count FROM tool_usage`)
	if err != nil {
		return nil, fmt.Errorf("store: tool counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var n string
		var c int
		if err := rows.Scan(&n, &c); err != nil {
			return nil, err
		}
		out[n] = c
	}
	return out, rows.Err()
}

// SetPreference stores a string preference value under key.
func (db *DB) SetPreference(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: set preference: %w", err)
	}
	return nil
}

// GetPreference returns the stored value for key, or empty string when the
// key has never been set.
func (db *DB) GetPreference(key string) (string, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get preference: %w", err)
	}
	return v, nil
}

// GetLinkPreview returns the cached preview for url, or nil when uncached.
// Failed fetches are cached like successes so they are not retried on every
// page load.
func (db *DB) GetLinkPreview(url string) (*models.LinkPreview, error) {
	var p models.LinkPreview
	var failed int
	err := db.conn.QueryRow(`
		SELECT url, title, description, failed, fetched_at
		FROM link_previews WHERE url = ?
	`, url).Scan(&p.URL, &p.Title, &p.Description, &failed, &p.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get link preview: %w", err)
	}
	p.Failed = failed != 0
	return &p, nil
}

// PutLinkPreview caches a preview, replacing any prior entry for the URL.
func (db *DB) PutLinkPreview(p models.LinkPreview) error {
	failed := 0
	if p.Failed {
		failed = 1
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO link_previews (url, title, description, failed, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			failed      = excluded.failed,
			fetched_at  = excluded.fetched_at
	`, p.URL, p.Title, p.Description, failed, p.FetchedAt)
	if err != nil {
		return fmt.Errorf("store: put link preview: %w", err)
	}
	return nil
}
