// Package aggregator reconciles recorded scenario rows against suite points
// and builds the ordered result payload.
//
// The payload order is the order in which the service listed the points. The
// service correlates array position with its own bookkeeping, so records are
// never reordered, added or dropped.
package aggregator

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/testsync/internal/ir"
)

// Correlation is the single typed table built from a point listing: the
// ordered result records plus the test case → point index.
type Correlation struct {
	records []ir.ResultRecord

	// byTestCase maps a test case id to the position of its point in records.
	// When the service lists a test case twice, the first point wins.
	byTestCase map[string]int

	unmatched []string
	applied   int
}

// Summary counts the reconciliation outcome.
type Summary struct {
	Points    int      `json:"points"`
	Completed int      `json:"completed"`
	Pending   int      `json:"pending"`
	Rows      int      `json:"rows"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// NewCorrelation builds the default record for every point and the reverse
// index from test case id to point.
func NewCorrelation(points []ir.Point) *Correlation {
	c := &Correlation{
		records:    make([]ir.ResultRecord, len(points)),
		byTestCase: make(map[string]int, len(points)),
	}
	for i, p := range points {
		c.records[i] = ir.NewResultRecord(i, p.ID)
		if _, seen := c.byTestCase[p.TestCaseID]; !seen {
			c.byTestCase[p.TestCaseID] = i
		}
	}
	return c
}

// PointFor returns the point id bound to a test case in this suite.
func (c *Correlation) PointFor(testCaseID string) (int64, bool) {
	i, ok := c.byTestCase[testCaseID]
	if !ok {
		return 0, false
	}
	return c.records[i].PointID, true
}

// PointIDs returns the point ids in listing order.
func (c *Correlation) PointIDs() []int64 {
	ids := make([]int64, len(c.records))
	for i, r := range c.records {
		ids[i] = r.PointID
	}
	return ids
}

// Apply replays rows against the table. For every test case id of a row that
// has a point in the suite, the point's record becomes Completed with the row's
// outcome. Ids without a point are collected in the summary and otherwise ignored.
// A later row for the same test case overwrites an earlier one.
func (c *Correlation) Apply(rows []ir.ScenarioRow) {
	for _, row := range rows {
		c.applied++
		for _, tc := range row.SplitTestCaseIDs() {
			i, ok := c.byTestCase[tc]
			if !ok {
				c.unmatched = append(c.unmatched, tc)
				continue
			}
			c.records[i].State = ir.StateCompleted
			c.records[i].Outcome = row.Outcome
			c.records[i].Comment = Comment(tc, row)
		}
	}
}

// Records returns a copy of the result records in point order.
func (c *Correlation) Records() []ir.ResultRecord {
	return append([]ir.ResultRecord{}, c.records...)
}

// Payload serializes the records as the JSON array the service expects.
func (c *Correlation) Payload() ([]byte, error) {
	data, err := json.Marshal(c.Records())
	if err != nil {
		return nil, fmt.Errorf("marshal result payload: %w", err)
	}
	return data, nil
}

// Summary reports how many points were completed and which ids were unmatched.
func (c *Correlation) Summary() Summary {
	s := Summary{
		Points:    len(c.records),
		Rows:      c.applied,
		Unmatched: append([]string(nil), c.unmatched...),
	}
	for _, r := range c.records {
		if r.Completed() {
			s.Completed++
		}
	}
	s.Pending = s.Points - s.Completed
	return s
}

// Comment composes the comment attached to a completed point.
// Text is NFC-normalized so the same scenario always yields the same bytes.
func Comment(testCaseID string, row ir.ScenarioRow) string {
	return norm.NFC.String(fmt.Sprintf("%s: %s : %s | Feature File: %s | Description: %s",
		ir.DefaultComment, testCaseID, row.Outcome, row.FeatureName, row.Description))
}

// Reconcile is the one-call form: correlate points, replay rows, return the table.
func Reconcile(points []ir.Point, rows []ir.ScenarioRow) *Correlation {
	c := NewCorrelation(points)
	c.Apply(rows)
	return c
}
