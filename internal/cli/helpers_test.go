package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testsync/internal/config"
	"github.com/roach88/testsync/internal/ir"
	"github.com/roach88/testsync/internal/store"
	"github.com/roach88/testsync/internal/testutil"
)

var cliNow = time.Date(2024, 3, 9, 21, 5, 7, 0, time.UTC)

var cliPoints = []ir.Point{
	{ID: 11, TestCaseID: "10"},
	{ID: 12, TestCaseID: "20"},
	{ID: 13, TestCaseID: "30"},
}

const checkoutReport = `[
  {
    "uri": "features/checkout/Checkout.feature",
    "name": "Checkout",
    "elements": [
      {
        "type": "scenario",
        "name": "Checkout with saved card",
        "line": 7,
        "tags": [{"name": "@TC-20"}],
        "steps": [{"result": {"status": "passed", "duration": 1000000000}}]
      },
      {
        "type": "scenario",
        "name": "Checkout with expired card",
        "line": 15,
        "tags": [{"name": "@TC_30"}, {"name": "@TC-99"}],
        "steps": [{"result": {"status": "failed", "duration": 2000000000}}]
      }
    ]
  }
]`

type cliFixture struct {
	svc        *testutil.FakeService
	dir        string
	storeDir   string
	configPath string
	env        map[string]string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	svc := testutil.NewFakeService(t, cliPoints...)
	dir := t.TempDir()
	f := &cliFixture{
		svc:        svc,
		dir:        dir,
		storeDir:   filepath.Join(dir, "store"),
		configPath: filepath.Join(dir, "testsync.yaml"),
		env:        map[string]string{config.EnvToken: "pat"},
	}

	cfg := fmt.Sprintf("server_url: %q\nstore_dir: %q\nsuite:\n  name: Nightly\n", svc.URL(), f.storeDir)
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o600))
	return f
}

// writeStoreOnlyConfig replaces the config with one that has no server url.
func (f *cliFixture) writeStoreOnlyConfig(t *testing.T) {
	t.Helper()
	cfg := fmt.Sprintf("store_dir: %q\n", f.storeDir)
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o600))
}

func (f *cliFixture) opts(format string) *RootOptions {
	return &RootOptions{
		Format:     format,
		ConfigPath: f.configPath,
		LookupEnv: func(key string) (string, bool) {
			v, ok := f.env[key]
			return v, ok
		},
		Now: func() time.Time { return cliNow },
	}
}

func (f *cliFixture) store() *store.Store {
	return store.New(f.storeDir, cliNow)
}

// initStore creates the store and appends rows the way record would.
func (f *cliFixture) initStore(t *testing.T, rows ...ir.ScenarioRow) {
	t.Helper()
	st := f.store()
	require.NoError(t, st.Initialize(t.Context()))
	for _, row := range rows {
		require.NoError(t, st.AppendRow(t.Context(), row))
	}
}

func (f *cliFixture) writeReport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, "reports", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func cliRow(description, outcome, testCaseIDs string) ir.ScenarioRow {
	return ir.ScenarioRow{
		Description:     description,
		Outcome:         outcome,
		TestCaseIDs:     testCaseIDs,
		FeatureName:     "Checkout",
		DurationSeconds: 1,
	}
}
