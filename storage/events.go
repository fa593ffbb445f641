package storage

import (
	"fmt"
	"time"
)

// Activation records a single emitted trigger.
type Activation struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // pressed, released, toggled
	Hotkey    string    `json:"hotkey"`
}

// Diagnostic records a capture health event.
type Diagnostic struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail"`
}

// SaveActivation stores an emitted trigger
func (db *DB) SaveActivation(kind, hotkey string) error {
	_, err := db.conn.Exec(
		`INSERT INTO activations (kind, hotkey) VALUES (?, ?)`,
		kind, hotkey,
	)
	if err != nil {
		return fmt.Errorf("failed to save activation: %w", err)
	}
	return nil
}

// GetActivations retrieves activations with pagination
func (db *DB) GetActivations(limit, offset int) ([]Activation, error) {
	rows, err := db.conn.Query(
		`SELECT id, timestamp, kind, hotkey
		 FROM activations
		 ORDER BY timestamp DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activations: %w", err)
	}
	defer rows.Close()

	var activations []Activation
	for rows.Next() {
		var a Activation
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.Kind, &a.Hotkey); err != nil {
			return nil, fmt.Errorf("failed to scan activation: %w", err)
		}
		activations = append(activations, a)
	}
	return activations, rows.Err()
}

// GetActivationCount returns the total number of stored activations
func (db *DB) GetActivationCount() (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM activations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activations: %w", err)
	}
	return count, nil
}

// SaveDiagnostic stores a capture health event
func (db *DB) SaveDiagnostic(kind, outcome, detail string) error {
	_, err := db.conn.Exec(
		`INSERT INTO diagnostics (kind, outcome, detail) VALUES (?, ?, ?)`,
		kind, outcome, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to save diagnostic: %w", err)
	}
	return nil
}

// GetDiagnostics retrieves diagnostics with pagination
func (db *DB) GetDiagnostics(limit, offset int) ([]Diagnostic, error) {
	rows, err := db.conn.Query(
		`SELECT id, timestamp, kind, outcome, detail
		 FROM diagnostics
		 ORDER BY timestamp DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []Diagnostic
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.Kind, &d.Outcome, &d.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// DailyCount aggregates activations per day.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// GetDailyActivationCounts returns per-day activation counts for the last
// N days.
func (db *DB) GetDailyActivationCounts(days int) ([]DailyCount, error) {
	rows, err := db.conn.Query(
		`SELECT DATE(timestamp) AS day, COUNT(*)
		 FROM activations
		 WHERE timestamp >= DATETIME('now', ?)
		 GROUP BY day
		 ORDER BY day DESC`,
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
