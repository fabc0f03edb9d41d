// Package session ties one test execution to one synchronization pass.
//
// A Session is created once per execution. Scenario workers call Record as
// they finish; Finalize runs after every worker has joined, reads the store
// once and uploads the reconciled results.
//
//	s := session.New(cfg, session.Deps{Remote: client, Store: st, Logger: logger})
//	if err := s.Begin(ctx); err != nil { ... }
//	_ = s.RunScenarios(ctx, 4, scenarios)
//	report, err := s.Finalize(ctx)
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/testsync/internal/aggregator"
	"github.com/roach88/testsync/internal/config"
	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/metrics"
	"github.com/roach88/testsync/internal/orchestrator"
	"github.com/roach88/testsync/internal/store"
	"github.com/roach88/testsync/internal/tags"
)

// Remote is the test-management service as seen by a session.
type Remote interface {
	orchestrator.Remote
	ListPoints(ctx context.Context, planID, suiteID int64) ([]ir.Point, error)
	PatchRunResults(ctx context.Context, runID int64, records []ir.ResultRecord) error
}

// Deps are the collaborators of a Session. Store and Remote are required;
// Remote is only used by Finalize.
type Deps struct {
	Remote  Remote
	Store   *store.Store
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Scenario executes one scenario and reports its result.
type Scenario func(ctx context.Context) ir.ScenarioResult

// Report describes a finished synchronization pass.
type Report struct {
	SessionID string                  `json:"session_id"`
	StorePath string                  `json:"store_path"`
	PlanID    int64                   `json:"plan_id"`
	SuiteID   int64                   `json:"suite_id"`
	RunID     int64                   `json:"run_id"`
	Decisions []orchestrator.Decision `json:"decisions"`
	Summary   aggregator.Summary      `json:"summary"`
	Recorded  int64                   `json:"recorded"`
	Lost      int64                   `json:"lost"`
}

// Session is safe for concurrent use by scenario workers.
type Session struct {
	id   uuid.UUID
	cfg  config.Config
	deps Deps

	mu    sync.Mutex
	begun bool

	recorded atomic.Int64
	lost     atomic.Int64

	finalizeOnce sync.Once
	report       Report
	finalizeErr  error
}

// New returns a session with a fresh time-ordered id.
func New(cfg config.Config, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	deps.Logger = deps.Logger.With().Str("session", id.String()).Logger()
	return &Session{id: id, cfg: cfg, deps: deps}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id.String()
}

// Begin initializes the record store. Only the first successful call does
// any work; a failed call may be retried.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.begun {
		return nil
	}
	if err := s.deps.Store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize result store: %w", err)
	}
	s.begun = true
	s.deps.Logger.Info().Str("path", s.deps.Store.Path()).Msg("Result store initialized")
	return nil
}

// Record persists one scenario result. Failures are logged and counted but
// never surface to the scenario.
func (s *Session) Record(ctx context.Context, res ir.ScenarioResult) {
	row := tags.Row(res)
	if err := s.deps.Store.AppendRow(ctx, row); err != nil {
		s.lost.Add(1)
		s.deps.Metrics.RowLost()
		s.deps.Logger.Error().Err(err).Str("scenario", res.Name).Msg("Failed to record scenario result")
		return
	}
	s.recorded.Add(1)
	s.deps.Metrics.RowAppended()
	s.deps.Logger.Debug().
		Str("scenario", row.Description).
		Str("outcome", row.Outcome).
		Str("test_case_ids", row.TestCaseIDs).
		Msg("Scenario recorded")
}

// RunScenarios runs scenarios on at most workers goroutines, recording each
// result, and returns once all of them have finished. Scenarios not yet
// started when ctx is cancelled are skipped. The store must already be
// initialized, by Begin in this process or by another process.
func (s *Session) RunScenarios(ctx context.Context, workers int, scenarios []Scenario) error {
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, scenario := range scenarios {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			s.Record(ctx, scenario(ctx))
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// Recorded returns the number of rows appended by this session.
func (s *Session) Recorded() int64 { return s.recorded.Load() }

// Lost returns the number of results that could not be appended.
func (s *Session) Lost() int64 { return s.lost.Load() }

// Finalize provisions the plan, suite and run, reconciles the recorded rows
// against the suite's points and uploads the results. It runs once; later
// calls return the first outcome.
func (s *Session) Finalize(ctx context.Context) (Report, error) {
	s.finalizeOnce.Do(func() {
		s.report, s.finalizeErr = s.finalize(ctx)
		if s.finalizeErr != nil {
			s.deps.Logger.Error().Err(s.finalizeErr).Msg("Finalization failed")
		}
	})
	return s.report, s.finalizeErr
}

func (s *Session) finalize(ctx context.Context) (report Report, err error) {
	if s.deps.Remote == nil {
		return Report{}, errors.New("session has no remote client")
	}

	report = Report{
		SessionID: s.ID(),
		StorePath: s.deps.Store.Path(),
		Recorded:  s.Recorded(),
		Lost:      s.Lost(),
	}

	orch := orchestrator.New(s.deps.Remote, Settings(s.cfg), Overrides(s.cfg),
		orchestrator.WithClock(s.deps.Now),
		orchestrator.WithLogger(s.deps.Logger),
	)
	defer func() { report.Decisions = orch.Decisions() }()

	if err := orch.Validate(); err != nil {
		return report, err
	}

	plan, err := orch.ResolvePlan(ctx)
	if err != nil {
		return report, err
	}
	report.PlanID = plan.ID

	suite, err := orch.ResolveSuite(ctx, plan)
	if err != nil {
		return report, err
	}
	report.SuiteID = suite.ID

	points, err := s.deps.Remote.ListPoints(ctx, plan.ID, suite.ID)
	if err != nil {
		return report, fmt.Errorf("list points: %w", err)
	}

	rows, err := s.deps.Store.ReadAll(ctx)
	if err != nil {
		return report, fmt.Errorf("read result store: %w", err)
	}

	corr := aggregator.Reconcile(points, rows)
	report.Summary = corr.Summary()
	s.deps.Metrics.ObserveReconcile(report.Summary.Points, report.Summary.Completed, len(report.Summary.Unmatched))
	if len(report.Summary.Unmatched) > 0 {
		s.deps.Logger.Warn().Strs("test_case_ids", report.Summary.Unmatched).Msg("Test cases not found in suite")
	}

	run, err := orch.ResolveRun(ctx, plan.ID, corr.PointIDs())
	if err != nil {
		return report, err
	}
	report.RunID = run.ID

	if err := s.deps.Remote.PatchRunResults(ctx, run.ID, corr.Records()); err != nil {
		return report, fmt.Errorf("upload results: %w", err)
	}

	if err := s.deps.Metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.deps.Logger.Warn().Err(err).Str("path", s.cfg.MetricsFile).Msg("Failed to write metrics")
	}

	s.deps.Logger.Info().
		Int64("plan_id", report.PlanID).
		Int64("suite_id", report.SuiteID).
		Int64("run_id", report.RunID).
		Int("points", report.Summary.Points).
		Int("completed", report.Summary.Completed).
		Msg("Results synchronized")
	return report, nil
}

// Settings maps the configuration onto orchestrator settings.
func Settings(cfg config.Config) orchestrator.Settings {
	return orchestrator.Settings{
		PlanName:      cfg.Plan.Name,
		AreaPath:      cfg.Plan.AreaPath,
		IterationPath: cfg.Plan.IterationPath,
		SuiteName:     cfg.Suite.Name,
		SuiteQuery:    cfg.Suite.Query,
		RunName:       cfg.Run.Name,
	}
}

// Overrides extracts the resource id overrides from the configuration.
func Overrides(cfg config.Config) orchestrator.Overrides {
	return orchestrator.Overrides{
		PlanID:      cfg.Env.PlanID,
		RootSuiteID: cfg.Env.RootSuiteID,
		SuiteID:     cfg.Env.SuiteID,
		RunID:       cfg.Env.RunID,
	}
}
