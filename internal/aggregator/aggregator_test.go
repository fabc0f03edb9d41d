package aggregator

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testsync/internal/ir"
)

var threePoints = []ir.Point{
	{ID: 1, TestCaseID: "10"},
	{ID: 2, TestCaseID: "20"},
	{ID: 3, TestCaseID: "30"},
}

func TestReconcile_OnlyMatchedPositionCompleted(t *testing.T) {
	rows := []ir.ScenarioRow{{
		Description: "Checkout with saved card",
		Outcome:     ir.OutcomePassed,
		TestCaseIDs: "20,",
		FeatureName: "Checkout",
	}}

	records := Reconcile(threePoints, rows).Records()
	require.Len(t, records, 3)

	assert.Equal(t, int64(2), records[1].PointID)
	assert.Equal(t, ir.StateCompleted, records[1].State)
	assert.Equal(t, ir.OutcomePassed, records[1].Outcome)

	for _, i := range []int{0, 2} {
		assert.Equal(t, ir.StatePending, records[i].State, "position %d", i)
		assert.Empty(t, records[i].Outcome, "position %d", i)
		assert.Equal(t, ir.DefaultComment, records[i].Comment, "position %d", i)
	}
}

func TestReconcile_UnmatchedIgnored(t *testing.T) {
	rows := []ir.ScenarioRow{{Description: "x", Outcome: ir.OutcomeFailed, TestCaseIDs: "99,"}}

	c := Reconcile(threePoints, rows)
	assert.Equal(t, NewCorrelation(threePoints).Records(), c.Records())

	s := c.Summary()
	assert.Equal(t, 0, s.Completed)
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, []string{"99"}, s.Unmatched)
}

func TestReconcile_PointOrderPreserved(t *testing.T) {
	points := []ir.Point{
		{ID: 900, TestCaseID: "3"},
		{ID: 100, TestCaseID: "1"},
		{ID: 500, TestCaseID: "2"},
	}
	rows := []ir.ScenarioRow{
		{Outcome: ir.OutcomePassed, TestCaseIDs: "1,2,3,"},
	}

	c := Reconcile(points, rows)
	assert.Equal(t, []int64{900, 100, 500}, c.PointIDs())

	records := c.Records()
	for i, r := range records {
		assert.Equal(t, points[i].ID, r.PointID)
		assert.Equal(t, int64(ir.ResultRecordBaseID+i), r.ID)
		assert.True(t, r.Completed())
	}
}

func TestReconcile_FirstPointWinsForDuplicateTestCase(t *testing.T) {
	points := []ir.Point{
		{ID: 1, TestCaseID: "10"},
		{ID: 2, TestCaseID: "10"},
	}
	c := Reconcile(points, []ir.ScenarioRow{{Outcome: ir.OutcomePassed, TestCaseIDs: "10,"}})

	pointID, ok := c.PointFor("10")
	require.True(t, ok)
	assert.Equal(t, int64(1), pointID)

	records := c.Records()
	assert.True(t, records[0].Completed())
	assert.False(t, records[1].Completed())
}

func TestReconcile_LaterRowOverwrites(t *testing.T) {
	rows := []ir.ScenarioRow{
		{Description: "first", Outcome: ir.OutcomePassed, TestCaseIDs: "10,"},
		{Description: "second", Outcome: ir.OutcomeFailed, TestCaseIDs: "10,10,"},
	}

	records := Reconcile(threePoints, rows).Records()
	assert.Equal(t, ir.OutcomeFailed, records[0].Outcome)
	assert.Contains(t, records[0].Comment, "Description: second")
}

func TestReconcile_NoPoints(t *testing.T) {
	c := Reconcile(nil, []ir.ScenarioRow{{Outcome: ir.OutcomePassed, TestCaseIDs: "1,"}})

	payload, err := c.Payload()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
	assert.Equal(t, Summary{Rows: 1, Unmatched: []string{"1"}}, c.Summary())
}

func TestReconcile_NoRows(t *testing.T) {
	c := Reconcile(threePoints, nil)
	assert.Equal(t, Summary{Points: 3, Pending: 3}, c.Summary())
}

func TestRecordsIsCopy(t *testing.T) {
	c := NewCorrelation(threePoints)
	records := c.Records()
	records[0].State = ir.StateCompleted

	assert.False(t, c.Records()[0].Completed())
}

func TestComment(t *testing.T) {
	row := ir.ScenarioRow{
		Description: "Cafe\u0301 menu loads",
		Outcome:     ir.OutcomePassed,
		FeatureName: "Menu",
	}

	got := Comment("42", row)
	assert.Equal(t, "Test Case run by Automation: 42 : Passed | Feature File: Menu | Description: Caf\u00e9 menu loads", got, "comment is NFC-normalized")
}

func TestPayload_Golden(t *testing.T) {
	rows := []ir.ScenarioRow{{
		Description: "Checkout with saved card",
		Outcome:     ir.OutcomePassed,
		TestCaseIDs: "20,",
		FeatureName: "Checkout",
	}}

	payload, err := Reconcile(threePoints, rows).Payload()
	require.NoError(t, err)

	var pretty bytes.Buffer
	require.NoError(t, json.Indent(&pretty, payload, "", "  "))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "payload_ordering", pretty.Bytes())
}
