package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/store"
	"github.com/roach88/testsync/internal/tags"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Name     string
	Status   string
	Tags     []string
	URI      string
	Duration time.Duration
}

// RecordResult is the output of the record command.
type RecordResult struct {
	StorePath   string `json:"store_path"`
	Description string `json:"description"`
	Outcome     string `json:"outcome"`
	TestCaseIDs string `json:"test_case_ids"`
	FeatureFile string `json:"feature_file"`
}

func (r RecordResult) String() string {
	ids := r.TestCaseIDs
	if ids == "" {
		ids = "none"
	}
	return fmt.Sprintf("✓ Recorded %q: %s (test cases: %s)", r.Description, r.Outcome, ids)
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append one scenario result to the store",
		Long: `Append the result of one finished scenario to today's result store.

Safe to call from many processes at once. Test case ids are taken from tags
of the form TC-<id> or TC_<id>.

Exit codes:
  0 - Result recorded
  1 - Append failed
  2 - Command error (store not initialized, missing --name, etc.)

Examples:
  testsync record --name "Login with SSO" --status passed --tag @TC-101 --uri features/Login.feature:4
  testsync record --name "Checkout" --status failed --tag TC_7 --tag smoke --duration 12s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "scenario name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.Status, "status", string(ir.StatusPassed), "scenario status (passed|failed|skipped|pending|undefined|ambiguous)")
	cmd.Flags().StringArrayVarP(&opts.Tags, "tag", "t", nil, "scenario tag (repeatable)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "feature file uri of the scenario")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "scenario execution time")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}

	row := tags.Row(ir.ScenarioResult{
		Name:     opts.Name,
		Tags:     opts.Tags,
		Status:   ir.ParseStatus(opts.Status),
		URI:      opts.URI,
		Duration: opts.Duration,
	})

	if err := env.store.AppendRow(cmd.Context(), row); err != nil {
		env.metrics.RowLost()
		if errors.Is(err, store.ErrNotInitialized) {
			return WrapExitError(ExitCommandError, "result store not initialized (run 'testsync init' first)", err)
		}
		return WrapExitError(ExitFailure, "failed to record scenario", err)
	}
	env.metrics.RowAppended()

	return env.out.Success(RecordResult{
		StorePath:   env.store.Path(),
		Description: row.Description,
		Outcome:     row.Outcome,
		TestCaseIDs: row.TestCaseIDs,
		FeatureFile: row.FeatureName,
	})
}
