package azure

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/metrics"
)

// DefaultAPIVersion is sent as the api-version query parameter when none is configured.
const DefaultAPIVersion = "5.0"

const (
	createPlanPath   = "/test/plans"
	createSuitePath  = "/test/Plans/%d/suites/%d"
	listPointsPath   = "/test/Plans/%d/Suites/%d/points"
	createRunPath    = "/test/runs"
	patchResultsPath = "/test/Runs/%d/results"
)

// maxLoggedBody bounds how much of a response body ends up in logs and errors.
const maxLoggedBody = 2048

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIVersion string
	Token      string
	Timeout    time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for self-signed internal endpoints; off by default.
	InsecureSkipVerify bool

	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Client talks to the test-management service.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	apiVersion string
	authHeader string
	http       *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client. It fails with ErrMissingToken before any request
// can be built when no token is configured.
func NewClient(opts Options) (*Client, error) {
	encoded, err := EncodeToken(opts.Token)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid server url %q", opts.BaseURL)
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed endpoints
			opts.Logger.Warn().Str("server", base).Msg("TLS certificate verification disabled")
		}
		transport = t
	}

	return &Client{
		baseURL:    base,
		apiVersion: apiVersion,
		authHeader: "Basic " + encoded,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Metrics.InstrumentRoundTripper(transport),
		},
		logger: opts.Logger,
	}, nil
}

// CreatePlan creates a test plan and returns it with its root suite id.
func (c *Client) CreatePlan(ctx context.Context, name, areaPath, iterationPath string) (ir.Plan, error) {
	c.logger.Info().
		Str("name", name).
		Str("area_path", areaPath).
		Str("iteration_path", iterationPath).
		Msg("Creating test plan")

	var resp planResponse
	err := c.do(ctx, OpCreatePlan, http.MethodPost, createPlanPath, planRequest{
		Name:      name,
		Iteration: iterationPath,
		Area:      nameRef{Name: areaPath},
	}, &resp)
	if err != nil {
		return ir.Plan{}, err
	}

	if !resp.ID.set {
		return ir.Plan{}, missingField(OpCreatePlan, "id")
	}
	if resp.RootSuite == nil || !resp.RootSuite.ID.set {
		return ir.Plan{}, missingField(OpCreatePlan, "rootSuite.id")
	}

	plan := ir.Plan{
		ID:            resp.ID.value,
		RootSuiteID:   resp.RootSuite.ID.value,
		Name:          name,
		AreaPath:      areaPath,
		IterationPath: iterationPath,
	}
	c.logger.Info().Int64("plan_id", plan.ID).Int64("root_suite_id", plan.RootSuiteID).Msg("Test plan created")
	return plan, nil
}

// CreateSuite creates a dynamic suite under rootSuiteID whose membership is
// defined by query.
func (c *Client) CreateSuite(ctx context.Context, planID, rootSuiteID int64, name, query string) (ir.Suite, error) {
	c.logger.Info().
		Str("name", name).
		Int64("plan_id", planID).
		Int64("root_suite_id", rootSuiteID).
		Msg("Creating dynamic test suite")

	var resp suiteListResponse
	err := c.do(ctx, OpCreateSuite, http.MethodPost, fmt.Sprintf(createSuitePath, planID, rootSuiteID), suiteRequest{
		Name:        name,
		SuiteType:   SuiteTypeDynamic,
		QueryString: query,
	}, &resp)
	if err != nil {
		return ir.Suite{}, err
	}

	if len(resp.Value) == 0 || !resp.Value[0].ID.set {
		return ir.Suite{}, missingField(OpCreateSuite, "value[0].id")
	}

	suite := ir.Suite{
		ID:          resp.Value[0].ID.value,
		PlanID:      planID,
		RootSuiteID: rootSuiteID,
		Name:        name,
		Query:       query,
	}
	c.logger.Info().Int64("suite_id", suite.ID).Msg("Test suite created")
	return suite, nil
}

// ListPoints returns the suite's points in the order the service lists them.
func (c *Client) ListPoints(ctx context.Context, planID, suiteID int64) ([]ir.Point, error) {
	c.logger.Info().Int64("plan_id", planID).Int64("suite_id", suiteID).Msg("Listing test points")

	var resp pointListResponse
	if err := c.do(ctx, OpListPoints, http.MethodGet, fmt.Sprintf(listPointsPath, planID, suiteID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, missingField(OpListPoints, "value")
	}

	points := make([]ir.Point, 0, len(*resp.Value))
	for i, p := range *resp.Value {
		if !p.ID.set {
			return nil, missingField(OpListPoints, fmt.Sprintf("value[%d].id", i))
		}
		if p.TestCase == nil || !p.TestCase.ID.set {
			return nil, missingField(OpListPoints, fmt.Sprintf("value[%d].testCase.id", i))
		}
		points = append(points, ir.Point{
			ID:         p.ID.value,
			TestCaseID: strconv.FormatInt(p.TestCase.ID.value, 10),
		})
	}

	c.logger.Info().Int("points", len(points)).Msg("Test points listed")
	return points, nil
}

// CreateRun creates a run bound to pointIDs, in order.
func (c *Client) CreateRun(ctx context.Context, name string, planID int64, pointIDs []int64) (ir.Run, error) {
	c.logger.Info().Str("name", name).Int64("plan_id", planID).Int("points", len(pointIDs)).Msg("Creating test run")

	if pointIDs == nil {
		pointIDs = []int64{}
	}

	var resp runResponse
	err := c.do(ctx, OpCreateRun, http.MethodPost, createRunPath, runRequest{
		Name:     name,
		PointIDs: pointIDs,
		Plan:     planRef{ID: strconv.FormatInt(planID, 10)},
	}, &resp)
	if err != nil {
		return ir.Run{}, err
	}
	if !resp.ID.set {
		return ir.Run{}, missingField(OpCreateRun, "id")
	}

	run := ir.Run{
		ID:       resp.ID.value,
		PlanID:   planID,
		Name:     name,
		PointIDs: append([]int64(nil), pointIDs...),
	}
	c.logger.Info().Int64("run_id", run.ID).Msg("Test run created")
	return run, nil
}

// PatchRunResults uploads the ordered result records to a run.
// The response body is logged and otherwise ignored.
func (c *Client) PatchRunResults(ctx context.Context, runID int64, records []ir.ResultRecord) error {
	c.logger.Info().Int64("run_id", runID).Int("results", len(records)).Msg("Uploading test results")

	if records == nil {
		records = []ir.ResultRecord{}
	}
	if err := c.do(ctx, OpPatchResults, http.MethodPatch, fmt.Sprintf(patchResultsPath, runID), records, nil); err != nil {
		return err
	}

	c.logger.Info().Int64("run_id", runID).Msg("Test results uploaded")
	return nil
}

// do performs one request/response exchange. A nil body sends no payload;
// a nil out skips decoding.
func (c *Client) do(ctx context.Context, op Op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dataErr(op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return transportErr(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(op, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug().
		Str("op", string(op)).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("body", truncate(data)).
		Msg("Remote call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transportErr(op, &StatusError{StatusCode: resp.StatusCode, Body: truncate(data)})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return dataErr(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path + "?api-version=" + url.QueryEscape(c.apiVersion)
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return string(b)
}
