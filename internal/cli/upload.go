package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/testsync/internal/session"
)

// UploadResult is the output of the upload command.
type UploadResult struct {
	session.Report
}

func (r UploadResult) String() string {
	return formatReport(r.Report)
}

// NewUploadCommand creates the upload command.
func NewUploadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Publish the recorded results as a test run",
		Long: `Resolve the plan, suite and run, match recorded scenarios to the suite's
test points and upload one result per point.

Resources are created on the service unless their ids are supplied through
PLAN_ID, ROOT_SUITE_ID, SUITE_ID and RUN_ID. The access token is read from
AZURE_PAT.

Exit codes:
  0 - Results uploaded
  1 - Synchronization failed (service error, malformed response)
  2 - Command error (invalid configuration, missing token or root suite id)

Examples:
  AZURE_PAT=... testsync upload
  PLAN_ID=1201 SUITE_ID=1300 testsync upload --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(rootOpts, cmd)
		},
	}
}

func runUpload(opts *RootOptions, cmd *cobra.Command) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}
	client, err := env.client()
	if err != nil {
		return err
	}

	report, err := env.session(client).Finalize(cmd.Context())
	if err != nil {
		return finalizeError(err)
	}
	return env.out.Success(UploadResult{Report: report})
}

func formatReport(r session.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Results synchronized (session %s)\n", r.SessionID)
	for _, d := range r.Decisions {
		how := "supplied"
		if d.Created {
			how = "created"
		}
		fmt.Fprintf(&b, "  %-6s %d (%s)\n", d.Resource+":", d.ID, how)
	}
	fmt.Fprintf(&b, "  Points: %d, completed %d, pending %d\n", r.Summary.Points, r.Summary.Completed, r.Summary.Pending)
	fmt.Fprintf(&b, "  Rows:   %d", r.Summary.Rows)
	if len(r.Summary.Unmatched) > 0 {
		fmt.Fprintf(&b, "\n  Warning: test cases not in suite: %s", strings.Join(r.Summary.Unmatched, ", "))
	}
	return b.String()
}
