package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Workers int
}

// SyncResult is the output of the sync command.
type SyncResult struct {
	Ingest IngestResult `json:"ingest"`
	Upload UploadResult `json:"upload"`
}

func (r SyncResult) String() string {
	return r.Ingest.String() + "\n" + r.Upload.String()
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <report-glob>...",
		Short: "Initialize, ingest reports and upload in one pass",
		Long: `Run init, ingest and upload in a single process: the result store is
recreated, every scenario of the matched Cucumber JSON reports is recorded,
and the results are published once all of them are stored.

Exit codes:
  0 - Results uploaded
  1 - Synchronization failed
  2 - Command error

Examples:
  AZURE_PAT=... testsync sync 'target/**/cucumber*.json'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", runtime.NumCPU(), "parallel store appenders")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command, patterns []string) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}
	client, err := env.client()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess := env.session(client)
	if err := sess.Begin(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize result store", err)
	}

	ingested, err := ingest(ctx, sess, patterns, opts.Workers)
	if err != nil {
		return err
	}

	report, err := sess.Finalize(ctx)
	if err != nil {
		return finalizeError(err)
	}
	return env.out.Success(SyncResult{Ingest: ingested, Upload: UploadResult{Report: report}})
}
