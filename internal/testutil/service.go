package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/roach88/testsync/internal/ir"
)

// Route names used by FakeService for call inspection and fault injection.
const (
	RouteCreatePlan   = "createPlan"
	RouteCreateSuite  = "createSuite"
	RouteListPoints   = "listPoints"
	RouteCreateRun    = "createRun"
	RoutePatchResults = "patchResults"
)

// Call is one request received by FakeService.
type Call struct {
	Route       string
	Method      string
	Path        string
	APIVersion  string
	Auth        string
	ContentType string
	PathValues  map[string]string
	Body        []byte
}

// Fault replaces the normal response of a route.
type Fault struct {
	Status int
	Body   string
}

// FakeService is an in-process stand-in for the test-management service.
//
// Identifiers are fixed per instance so tests can assert on them. Test case ids
// in point listings are sent as JSON strings, point ids as numbers, mirroring
// the real service.
type FakeService struct {
	Server *httptest.Server

	PlanID      int64
	RootSuiteID int64
	SuiteID     int64
	RunID       int64
	Points      []ir.Point

	mu      sync.Mutex
	calls   []Call
	faults  map[string]Fault
	patched map[int64][]ir.ResultRecord
}

// NewFakeService starts a fake service that is closed when the test ends.
func NewFakeService(t *testing.T, points ...ir.Point) *FakeService {
	t.Helper()

	f := &FakeService{
		PlanID:      1201,
		RootSuiteID: 1202,
		SuiteID:     1300,
		RunID:       5150,
		Points:      points,
		faults:      map[string]Fault{},
		patched:     map[int64][]ir.ResultRecord{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /test/plans", f.handle(RouteCreatePlan, f.createPlan))
	mux.HandleFunc("POST /test/Plans/{planId}/suites/{rootSuiteId}", f.handle(RouteCreateSuite, f.createSuite))
	mux.HandleFunc("GET /test/Plans/{planId}/Suites/{suiteId}/points", f.handle(RouteListPoints, f.listPoints))
	mux.HandleFunc("POST /test/runs", f.handle(RouteCreateRun, f.createRun))
	mux.HandleFunc("PATCH /test/Runs/{runId}/results", f.handle(RoutePatchResults, f.patchResults))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake service.
func (f *FakeService) URL() string {
	return f.Server.URL
}

// Fail makes every subsequent call to route answer with status and body.
func (f *FakeService) Fail(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[route] = Fault{Status: status, Body: body}
}

// Respond makes every subsequent call to route answer 200 with body.
func (f *FakeService) Respond(route, body string) {
	f.Fail(route, http.StatusOK, body)
}

// Calls returns all calls received, in arrival order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the calls received on route.
func (f *FakeService) CallsTo(route string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// Routes returns the route of every call, in arrival order.
func (f *FakeService) Routes() []string {
	calls := f.Calls()
	routes := make([]string, len(calls))
	for i, c := range calls {
		routes[i] = c.Route
	}
	return routes
}

// Patched returns the result records uploaded to runID.
func (f *FakeService) Patched(runID int64) []ir.ResultRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patched[runID]
}

type handlerFunc func(w http.ResponseWriter, call Call)

func (f *FakeService) handle(route string, next handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		call := Call{
			Route:       route,
			Method:      r.Method,
			Path:        r.URL.Path,
			APIVersion:  r.URL.Query().Get("api-version"),
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			PathValues:  map[string]string{},
			Body:        body,
		}
		for _, name := range []string{"planId", "rootSuiteId", "suiteId", "runId"} {
			if v := r.PathValue(name); v != "" {
				call.PathValues[name] = v
			}
		}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		fault, faulted := f.faults[route]
		f.mu.Unlock()

		if faulted {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = io.WriteString(w, fault.Body)
			return
		}
		next(w, call)
	}
}

func (f *FakeService) createPlan(w http.ResponseWriter, _ Call) {
	writeJSON(w, map[string]any{
		"id":        f.PlanID,
		"rootSuite": map[string]any{"id": strconv.FormatInt(f.RootSuiteID, 10)},
	})
}

func (f *FakeService) createSuite(w http.ResponseWriter, _ Call) {
	writeJSON(w, map[string]any{
		"value": []any{map[string]any{"id": f.SuiteID}},
		"count": 1,
	})
}

func (f *FakeService) listPoints(w http.ResponseWriter, _ Call) {
	value := make([]any, 0, len(f.Points))
	for _, p := range f.Points {
		value = append(value, map[string]any{
			"id":       p.ID,
			"testCase": map[string]any{"id": p.TestCaseID},
		})
	}
	writeJSON(w, map[string]any{"value": value, "count": len(value)})
}

func (f *FakeService) createRun(w http.ResponseWriter, _ Call) {
	writeJSON(w, map[string]any{"id": f.RunID})
}

func (f *FakeService) patchResults(w http.ResponseWriter, call Call) {
	runID, err := strconv.ParseInt(call.PathValues["runId"], 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad run id: %v", err), http.StatusBadRequest)
		return
	}

	var records []ir.ResultRecord
	if err := json.Unmarshal(call.Body, &records); err != nil {
		http.Error(w, fmt.Sprintf("bad payload: %v", err), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.patched[runID] = records
	f.mu.Unlock()

	writeJSON(w, map[string]any{"value": records, "count": len(records)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
