// Package orchestrator resolves the plan, suite and run a synchronization
// pass reports into. Each resource is either supplied by the caller as an
// override or created on the service, in the order plan, suite, run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/testsync/internal/ir"
)

// SuiteNameLayout is appended to the configured suite name.
const SuiteNameLayout = "2006/01/02 15:04:05"

// ErrMissingRootSuite means a suite has to be created under a supplied plan
// whose root suite id was not supplied.
var ErrMissingRootSuite = errors.New("root suite id is required to create a suite under an existing plan")

// Remote is the subset of the service client the orchestrator needs.
type Remote interface {
	CreatePlan(ctx context.Context, name, areaPath, iterationPath string) (ir.Plan, error)
	CreateSuite(ctx context.Context, planID, rootSuiteID int64, name, query string) (ir.Suite, error)
	CreateRun(ctx context.Context, name string, planID int64, pointIDs []int64) (ir.Run, error)
}

// Overrides are caller-supplied resource ids. Zero means absent.
type Overrides struct {
	PlanID      int64
	RootSuiteID int64
	SuiteID     int64
	RunID       int64
}

// Settings names the resources created when no override is present.
type Settings struct {
	PlanName      string
	AreaPath      string
	IterationPath string
	SuiteName     string
	SuiteQuery    string
	RunName       string
}

// Decision records how one resource was resolved.
type Decision struct {
	Resource string `json:"resource"`
	ID       int64  `json:"id"`
	Created  bool   `json:"created"`
}

// Orchestrator is used once per synchronization pass. Not safe for concurrent use.
type Orchestrator struct {
	remote    Remote
	settings  Settings
	overrides Overrides
	now       func() time.Time
	logger    zerolog.Logger
	decisions []Decision
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for suite names.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New returns an Orchestrator.
func New(remote Remote, settings Settings, overrides Overrides, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:    remote,
		settings:  settings,
		overrides: overrides,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate rejects override combinations that would fail halfway through
// provisioning. It makes no network calls.
func (o *Orchestrator) Validate() error {
	if o.overrides.SuiteID == 0 && o.overrides.PlanID != 0 && o.overrides.RootSuiteID == 0 {
		return ErrMissingRootSuite
	}
	return nil
}

// ResolvePlan returns the supplied plan or creates one. A created plan
// carries the root suite id from the service; a supplied plan carries the
// supplied root suite id, which may be zero.
func (o *Orchestrator) ResolvePlan(ctx context.Context) (ir.Plan, error) {
	if id := o.overrides.PlanID; id != 0 {
		o.logger.Info().Int64("plan_id", id).Int64("root_suite_id", o.overrides.RootSuiteID).Msg("Using supplied test plan")
		o.record("plan", id, false)
		return ir.Plan{
			ID:            id,
			RootSuiteID:   o.overrides.RootSuiteID,
			Name:          o.settings.PlanName,
			AreaPath:      o.settings.AreaPath,
			IterationPath: o.settings.IterationPath,
		}, nil
	}

	plan, err := o.remote.CreatePlan(ctx, o.settings.PlanName, o.settings.AreaPath, o.settings.IterationPath)
	if err != nil {
		return ir.Plan{}, fmt.Errorf("resolve plan: %w", err)
	}
	o.record("plan", plan.ID, true)
	return plan, nil
}

// ResolveSuite returns the supplied suite or creates a query-based suite
// under plan's root suite.
func (o *Orchestrator) ResolveSuite(ctx context.Context, plan ir.Plan) (ir.Suite, error) {
	if id := o.overrides.SuiteID; id != 0 {
		o.logger.Info().Int64("suite_id", id).Msg("Using supplied test suite")
		o.record("suite", id, false)
		return ir.Suite{ID: id, PlanID: plan.ID, RootSuiteID: plan.RootSuiteID}, nil
	}
	if plan.RootSuiteID == 0 {
		return ir.Suite{}, ErrMissingRootSuite
	}

	name := SuiteName(o.settings.SuiteName, o.now())
	suite, err := o.remote.CreateSuite(ctx, plan.ID, plan.RootSuiteID, name, o.settings.SuiteQuery)
	if err != nil {
		return ir.Suite{}, fmt.Errorf("resolve suite: %w", err)
	}
	o.record("suite", suite.ID, true)
	return suite, nil
}

// ResolveRun returns the supplied run or creates one over pointIDs.
func (o *Orchestrator) ResolveRun(ctx context.Context, planID int64, pointIDs []int64) (ir.Run, error) {
	if id := o.overrides.RunID; id != 0 {
		o.logger.Info().Int64("run_id", id).Msg("Using supplied test run")
		o.record("run", id, false)
		return ir.Run{ID: id, PlanID: planID, PointIDs: pointIDs}, nil
	}

	run, err := o.remote.CreateRun(ctx, o.settings.RunName, planID, pointIDs)
	if err != nil {
		return ir.Run{}, fmt.Errorf("resolve run: %w", err)
	}
	o.record("run", run.ID, true)
	return run, nil
}

// Decisions returns the resolutions made so far, in order.
func (o *Orchestrator) Decisions() []Decision {
	out := make([]Decision, len(o.decisions))
	copy(out, o.decisions)
	return out
}

func (o *Orchestrator) record(resource string, id int64, created bool) {
	o.decisions = append(o.decisions, Decision{Resource: resource, ID: id, Created: created})
}

// SuiteName appends the creation timestamp to base.
func SuiteName(base string, now time.Time) string {
	return base + "_" + now.Format(SuiteNameLayout)
}
