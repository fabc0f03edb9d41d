package store

import (
	"context"
	"fmt"

	"github.com/roach88/testsync/internal/ir"
)

// ReadAll returns every appended row, header excluded, in append order.
// Returns an empty slice (not nil) when no scenario was recorded.
// A failed read can be retried from scratch.
func (s *Store) ReadAll(ctx context.Context) ([]ir.ScenarioRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := openExisting(s.path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT description, status, test_case_ids, feature_file, execution_time_seconds
		FROM test_data
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []ir.ScenarioRow{}
	for rows.Next() {
		var r ir.ScenarioRow
		if err := rows.Scan(&r.Description, &r.Outcome, &r.TestCaseIDs, &r.FeatureName, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Header returns the persisted column header.
func (s *Store) Header(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := openExisting(s.path)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT name FROM test_data_columns ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query header: %w", err)
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan header: %w", err)
		}
		header = append(header, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate header: %w", err)
	}
	return header, nil
}

// Count returns the number of appended rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := openExisting(s.path)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
