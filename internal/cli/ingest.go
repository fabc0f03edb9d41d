package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/testsync/internal/cucumber"
	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/session"
	"github.com/roach88/testsync/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Workers int
}

// IngestResult is the output of the ingest command.
type IngestResult struct {
	Files     []string `json:"files"`
	Scenarios int      `json:"scenarios"`
	Recorded  int64    `json:"recorded"`
	Lost      int64    `json:"lost"`
}

func (r IngestResult) String() string {
	s := fmt.Sprintf("✓ Ingested %d scenario(s) from %d report(s): %d recorded", r.Scenarios, len(r.Files), r.Recorded)
	if r.Lost > 0 {
		s += fmt.Sprintf("\n✗ %d result(s) could not be recorded", r.Lost)
	}
	return s
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <report-glob>...",
		Short: "Append scenario results from Cucumber JSON reports",
		Long: `Parse Cucumber JSON reports and append one row per scenario to today's
result store. Patterns support ** to match nested directories.

Exit codes:
  0 - All scenarios recorded
  1 - Some results could not be recorded
  2 - Command error (no reports matched, unparsable report, store not initialized)

Examples:
  testsync ingest target/cucumber.json
  testsync ingest 'target/**/cucumber*.json' --workers 8`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", runtime.NumCPU(), "parallel store appenders")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command, patterns []string) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := env.store.Count(ctx); err != nil {
		if errors.Is(err, store.ErrNotInitialized) {
			return WrapExitError(ExitCommandError, "result store not initialized (run 'testsync init' first)", err)
		}
		return WrapExitError(ExitCommandError, "failed to open result store", err)
	}

	result, err := ingest(ctx, env.session(nil), patterns, opts.Workers)
	if err != nil {
		return err
	}
	if err := env.out.Success(result); err != nil {
		return err
	}
	if result.Lost > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d result(s) could not be recorded", result.Lost))
	}
	return nil
}

// ingest parses every report matched by patterns and records the scenarios
// through sess.
func ingest(ctx context.Context, sess *session.Session, patterns []string, workers int) (IngestResult, error) {
	files, err := cucumber.Glob(patterns...)
	if err != nil {
		return IngestResult{}, WrapExitError(ExitCommandError, "failed to find reports", err)
	}

	var scenarios []session.Scenario
	for _, file := range files {
		results, err := cucumber.ParseFile(file)
		if err != nil {
			return IngestResult{}, WrapExitError(ExitCommandError, "failed to parse report", err)
		}
		for _, res := range results {
			scenarios = append(scenarios, reported(res))
		}
	}

	before, lostBefore := sess.Recorded(), sess.Lost()
	if err := sess.RunScenarios(ctx, workers, scenarios); err != nil {
		return IngestResult{}, WrapExitError(ExitFailure, "ingest interrupted", err)
	}

	return IngestResult{
		Files:     files,
		Scenarios: len(scenarios),
		Recorded:  sess.Recorded() - before,
		Lost:      sess.Lost() - lostBefore,
	}, nil
}

// reported wraps an already finished scenario.
func reported(res ir.ScenarioResult) session.Scenario {
	return func(context.Context) ir.ScenarioResult { return res }
}
