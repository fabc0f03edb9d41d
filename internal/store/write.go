package store

import (
	"context"
	"fmt"

	"github.com/roach88/testsync/internal/ir"
)

// AppendRow appends one scenario row.
//
// The store mutex is held for the whole open/insert/close so concurrent
// scenarios never interleave writes; it is released on every exit path.
// A failed append is not retried.
func (s *Store) AppendRow(ctx context.Context, row ir.ScenarioRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := openExisting(s.path)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		INSERT INTO test_data
		(description, status, test_case_ids, feature_file, execution_time_seconds)
		VALUES (?, ?, ?, ?, ?)
	`,
		row.Description,
		row.Outcome,
		row.TestCaseIDs,
		row.FeatureName,
		row.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}
