package ir

import (
	"strings"
	"time"
)

// Plan is the top-level container for one test cycle.
type Plan struct {
	ID            int64  `json:"id"`
	RootSuiteID   int64  `json:"root_suite_id"`
	Name          string `json:"name"`
	AreaPath      string `json:"area_path"`
	IterationPath string `json:"iteration_path"`
}

// Suite is a dynamic, query-based grouping of test cases under a plan.
type Suite struct {
	ID          int64  `json:"id"`
	PlanID      int64  `json:"plan_id"`
	RootSuiteID int64  `json:"root_suite_id"`
	Name        string `json:"name"`
	Query       string `json:"query"`
}

// Run is an execution instance bound to an ordered set of points.
type Run struct {
	ID       int64   `json:"id"`
	PlanID   int64   `json:"plan_id"`
	Name     string  `json:"name"`
	PointIDs []int64 `json:"point_ids"`
}

// Point binds one test case to one suite. Results are tracked per point.
type Point struct {
	ID         int64  `json:"id"`
	TestCaseID string `json:"test_case_id"`
}

// Result states understood by the service.
const (
	StatePending   = ""
	StateCompleted = "Completed"
)

// DefaultComment is attached to every point that no scenario exercised.
const DefaultComment = "Test Case run by Automation"

// ResultRecordBaseID is the offset the service expects for result ids within a run.
// The record at position i carries id ResultRecordBaseID+i.
const ResultRecordBaseID = 100000

// ResultRecord is the mutable result attached to a point.
// Serialized with the service's camelCase field names.
type ResultRecord struct {
	ID      int64  `json:"id"`
	PointID int64  `json:"pointId"`
	State   string `json:"state"`
	Outcome string `json:"outcome"`
	Comment string `json:"comment"`
}

// NewResultRecord returns the default, incomplete record for the point at position i.
func NewResultRecord(position int, pointID int64) ResultRecord {
	return ResultRecord{
		ID:      ResultRecordBaseID + int64(position),
		PointID: pointID,
		State:   StatePending,
		Outcome: "",
		Comment: DefaultComment,
	}
}

// Completed reports whether the record was reconciled against a scenario.
func (r ResultRecord) Completed() bool {
	return r.State == StateCompleted
}

// ScenarioRow is one persisted record of an executed scenario.
// Immutable once written.
type ScenarioRow struct {
	Description     string `json:"description"`
	Outcome         string `json:"status"`
	TestCaseIDs     string `json:"test_case_ids"` // comma-terminated, e.g. "101,202,"
	FeatureName     string `json:"feature_file"`
	DurationSeconds int64  `json:"execution_time_seconds"`
}

// SplitTestCaseIDs returns the individual test case ids of the row.
// Whitespace is trimmed and empty fragments (including the trailing one) are dropped.
// Duplicates are preserved.
func (r ScenarioRow) SplitTestCaseIDs() []string {
	parts := strings.Split(r.TestCaseIDs, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ids = append(ids, p)
	}
	return ids
}

// ScenarioResult is what the execution engine reports for a finished scenario.
// It is converted to a ScenarioRow before it is persisted.
type ScenarioResult struct {
	Name     string
	Tags     []string
	Status   Status
	URI      string
	Duration time.Duration
}
