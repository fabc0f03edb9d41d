package cucumber

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testsync/internal/ir"
)

func TestParseFile(t *testing.T) {
	results, err := ParseFile("testdata/reports/checkout.json")
	require.NoError(t, err)
	require.Len(t, results, 2, "background is skipped")

	assert.Equal(t, ir.ScenarioResult{
		Name:     "Checkout with saved card",
		Tags:     []string{"@smoke", "@TC-20"},
		Status:   ir.StatusPassed,
		URI:      "features/checkout/Checkout.feature:7",
		Duration: 3250 * time.Millisecond,
	}, results[0])

	assert.Equal(t, "Checkout with expired card", results[1].Name)
	assert.Equal(t, ir.StatusFailed, results[1].Status)
	assert.Equal(t, []string{"@TC_21", "@TC-22"}, results[1].Tags)
	assert.Equal(t, 3*time.Second, results[1].Duration)
}

func TestParseFile_NonPassedStatuses(t *testing.T) {
	results, err := ParseFile(filepath.Join("testdata", "reports", "nested", "login.json"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, ir.StatusUndefined, results[0].Status, "first non-passed status wins")
	assert.Equal(t, ir.StatusPassed, results[1].Status, "no steps")
	assert.Empty(t, results[1].Tags)
}

func TestParse_Invalid(t *testing.T) {
	_, err := ParseFile("testdata/broken.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")

	_, err = ParseFile("testdata/absent.json")
	require.Error(t, err)
}

func TestParse_EmptyReport(t *testing.T) {
	results, err := Parse(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScenarioStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ir.Status
		want     ir.Status
	}{
		{"none", nil, ir.StatusPassed},
		{"all passed", []ir.Status{ir.StatusPassed, ir.StatusPassed}, ir.StatusPassed},
		{"failure wins over earlier skip", []ir.Status{ir.StatusSkipped, ir.StatusFailed}, ir.StatusFailed},
		{"pending", []ir.Status{ir.StatusPassed, ir.StatusPending, ir.StatusSkipped}, ir.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scenarioStatus(tt.statuses))
		})
	}
}
