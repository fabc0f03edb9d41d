package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult is the output of the init command.
type InitResult struct {
	StorePath string `json:"store_path"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("✓ Result store initialized: %s", r.StorePath)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create today's result store",
		Long: `Create (or recreate) the result store for today's date under store_dir.

Run once before the test execution starts. Scenario results are appended
with 'record' or 'ingest' and published with 'upload'.

Exit codes:
  0 - Store created
  2 - Command error (invalid configuration, unwritable store_dir)

Examples:
  testsync init
  testsync init --config ci/testsync.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}

	if err := env.session(nil).Begin(cmd.Context()); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize result store", err)
	}
	return env.out.Success(InitResult{StorePath: env.store.Path()})
}
