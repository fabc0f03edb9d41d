package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/logging"
	"github.com/roach88/testsync/internal/metrics"
	"github.com/roach88/testsync/internal/testutil"
)

func newTestClient(t *testing.T, svc *testutil.FakeService) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL: svc.URL(),
		Token:   "abc",
		Timeout: 5 * time.Second,
		Metrics: metrics.New(),
		Logger:  logging.Nop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClientMissingToken(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://dev.example.com/org/project/_apis"})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "", Token: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server url")
}

func TestCreatePlan(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)

	plan, err := c.CreatePlan(context.Background(), "Nightly", `Proj\Web`, `Proj\Sprint 4`)
	require.NoError(t, err)

	assert.Equal(t, svc.PlanID, plan.ID)
	assert.Equal(t, svc.RootSuiteID, plan.RootSuiteID)
	assert.Equal(t, "Nightly", plan.Name)

	calls := svc.CallsTo(testutil.RouteCreatePlan)
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "5.0", calls[0].APIVersion)
	assert.Equal(t, "Basic OmFiYw==", calls[0].Auth)
	assert.Equal(t, "application/json", calls[0].ContentType)
	assert.JSONEq(t, `{"name":"Nightly","iteration":"Proj\\Sprint 4","area":{"name":"Proj\\Web"}}`, string(calls[0].Body))
}

func TestCreatePlanMissingRootSuite(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Respond(testutil.RouteCreatePlan, `{"id": 9}`)
	c := newTestClient(t, svc)

	_, err := c.CreatePlan(context.Background(), "p", "a", "i")
	require.Error(t, err)
	assert.True(t, IsDataError(err))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "rootSuite.id")
}

func TestCreateSuite(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)

	suite, err := c.CreateSuite(context.Background(), 11, 12, "Regression_2024/03/09 14:05:00", "SELECT [System.Id] FROM WorkItems")
	require.NoError(t, err)
	assert.Equal(t, svc.SuiteID, suite.ID)
	assert.Equal(t, int64(11), suite.PlanID)
	assert.Equal(t, int64(12), suite.RootSuiteID)

	calls := svc.CallsTo(testutil.RouteCreateSuite)
	require.Len(t, calls, 1)
	assert.Equal(t, "11", calls[0].PathValues["planId"])
	assert.Equal(t, "12", calls[0].PathValues["rootSuiteId"])

	var body map[string]string
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, SuiteTypeDynamic, body["suiteType"])
	assert.Equal(t, "SELECT [System.Id] FROM WorkItems", body["queryString"])
}

func TestCreateSuiteEmptyValue(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Respond(testutil.RouteCreateSuite, `{"value": [], "count": 0}`)
	c := newTestClient(t, svc)

	_, err := c.CreateSuite(context.Background(), 1, 2, "s", "q")
	assert.True(t, IsDataError(err))
}

func TestListPointsPreservesOrder(t *testing.T) {
	points := []ir.Point{
		{ID: 30, TestCaseID: "300"},
		{ID: 10, TestCaseID: "100"},
		{ID: 20, TestCaseID: "200"},
	}
	svc := testutil.NewFakeService(t, points...)
	c := newTestClient(t, svc)

	got, err := c.ListPoints(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.Equal(t, points, got)

	calls := svc.CallsTo(testutil.RouteListPoints)
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Empty(t, calls[0].ContentType, "reads carry no content type")
	assert.Equal(t, "6", calls[0].PathValues["suiteId"])
}

func TestListPointsEmptySuite(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)

	got, err := c.ListPoints(context.Background(), 5, 6)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListPointsMissingTestCase(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Respond(testutil.RouteListPoints, `{"value": [{"id": 1, "testCase": {"id": "10"}}, {"id": 2}]}`)
	c := newTestClient(t, svc)

	_, err := c.ListPoints(context.Background(), 5, 6)
	require.Error(t, err)
	assert.True(t, IsDataError(err))
	assert.Contains(t, err.Error(), "value[1].testCase.id")
}

func TestListPointsMissingValue(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Respond(testutil.RouteListPoints, `{"count": 0}`)
	c := newTestClient(t, svc)

	_, err := c.ListPoints(context.Background(), 5, 6)
	assert.True(t, IsDataError(err))
}

func TestCreateRun(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)

	run, err := c.CreateRun(context.Background(), "Automated run", 77, []int64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, svc.RunID, run.ID)
	assert.Equal(t, []int64{3, 1, 2}, run.PointIDs)

	calls := svc.CallsTo(testutil.RouteCreateRun)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"name":"Automated run","pointIds":[3,1,2],"plan":{"id":"77"}}`, string(calls[0].Body))
}

func TestPatchRunResults(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)

	records := []ir.ResultRecord{
		ir.NewResultRecord(0, 10),
		{ID: 100001, PointID: 20, State: ir.StateCompleted, Outcome: ir.OutcomePassed, Comment: "ok"},
	}
	require.NoError(t, c.PatchRunResults(context.Background(), svc.RunID, records))

	assert.Equal(t, records, svc.Patched(svc.RunID))

	calls := svc.CallsTo(testutil.RoutePatchResults)
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "application/json", calls[0].ContentType)
}

func TestTransportErrorOnStatus(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Fail(testutil.RouteCreateRun, http.StatusUnauthorized, `{"message":"denied"}`)
	c := newTestClient(t, svc)

	_, err := c.CreateRun(context.Background(), "r", 1, []int64{1})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsDataError(err))

	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, OpCreateRun, oe.Op)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Contains(t, se.Body, "denied")
}

func TestTransportErrorUnreachable(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c := newTestClient(t, svc)
	svc.Server.Close()

	_, err := c.ListPoints(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestDataErrorOnGarbage(t *testing.T) {
	svc := testutil.NewFakeService(t)
	svc.Respond(testutil.RouteCreateRun, `<html>oops</html>`)
	c := newTestClient(t, svc)

	_, err := c.CreateRun(context.Background(), "r", 1, nil)
	require.Error(t, err)
	assert.True(t, IsDataError(err))
}

func TestAPIVersionOverride(t *testing.T) {
	svc := testutil.NewFakeService(t)
	c, err := NewClient(Options{BaseURL: svc.URL() + "/", APIVersion: "7.1", Token: "abc", Logger: logging.Nop()})
	require.NoError(t, err)

	_, err = c.ListPoints(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "7.1", svc.CallsTo(testutil.RouteListPoints)[0].APIVersion)
}
