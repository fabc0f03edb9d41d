package cli

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/testsync/internal/azure"
	"github.com/roach88/testsync/internal/config"
	"github.com/roach88/testsync/internal/logging"
	"github.com/roach88/testsync/internal/metrics"
	"github.com/roach88/testsync/internal/orchestrator"
	"github.com/roach88/testsync/internal/session"
	"github.com/roach88/testsync/internal/store"
)

// environment is everything a command needs once flags and config are resolved.
type environment struct {
	cfg     config.Config
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics
	store   *store.Store
	out     *OutputFormatter
}

// load resolves configuration and builds the shared collaborators.
func (o *RootOptions) load(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(o.ConfigPath, o.LookupEnv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	now := o.Now
	if now == nil {
		now = time.Now
	}

	return &environment{
		cfg:     cfg,
		now:     now,
		logger:  logging.New(cmd.ErrOrStderr(), o.Verbose),
		metrics: metrics.New(),
		store:   store.New(cfg.StoreDir, now()),
		out:     &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()},
	}, nil
}

// client builds the service client. A missing server url or token is a
// command error.
func (e *environment) client() (*azure.Client, error) {
	if err := e.cfg.RequireServer(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	c, err := azure.NewClient(azure.Options{
		BaseURL:            e.cfg.ServerURL,
		APIVersion:         e.cfg.APIVersion,
		Token:              e.cfg.Env.Token,
		Timeout:            e.cfg.Timeout(),
		InsecureSkipVerify: e.cfg.InsecureSkipVerify,
		Metrics:            e.metrics,
		Logger:             e.logger,
	})
	if err != nil {
		if errors.Is(err, azure.ErrMissingToken) {
			return nil, WrapExitError(ExitCommandError, "missing access token: set "+config.EnvToken, err)
		}
		return nil, WrapExitError(ExitCommandError, "cannot create service client", err)
	}
	return c, nil
}

// session returns a session over the environment's store. remote may be nil
// for commands that never finalize.
func (e *environment) session(remote session.Remote) *session.Session {
	return session.New(e.cfg, session.Deps{
		Remote:  remote,
		Store:   e.store,
		Metrics: e.metrics,
		Logger:  e.logger,
		Now:     e.now,
	})
}

// finalizeError classifies a finalization failure.
func finalizeError(err error) error {
	if errors.Is(err, orchestrator.ErrMissingRootSuite) {
		return WrapExitError(ExitCommandError, "invalid resource ids: set "+config.EnvRootSuiteID+" or "+config.EnvSuiteID, err)
	}
	return WrapExitError(ExitFailure, "synchronization failed", err)
}
