package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/roach88/testsync/internal/ir"
)

var testDate = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

// createTestStore creates an initialized store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), testDate)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	return s
}

// createTestRow creates a row whose fields are all derived from i.
func createTestRow(i int) ir.ScenarioRow {
	return ir.ScenarioRow{
		Description:     fmt.Sprintf("scenario %d", i),
		Outcome:         ir.OutcomePassed,
		TestCaseIDs:     fmt.Sprintf("%d,%d,", 1000+i, 2000+i),
		FeatureName:     fmt.Sprintf("Feature%d", i%3),
		DurationSeconds: int64(i),
	}
}

// verifyPragma checks that a pragma has the expected value on the store file.
func verifyPragma(t *testing.T, path, name, expected string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var value string
	if err := db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		t.Fatalf("failed to query %s: %v", name, err)
	}
	if value != expected {
		t.Errorf("%s = %q, expected %q", name, value, expected)
	}
}
