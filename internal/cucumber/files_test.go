package cucumber

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlob(t *testing.T) {
	files, err := Glob("testdata/reports/**/*.json", "testdata/reports/checkout.json")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "reports", "checkout.json"),
		filepath.Join("testdata", "reports", "nested", "login.json"),
	}, files)
}

func TestGlob_NoMatches(t *testing.T) {
	_, err := Glob("testdata/none/*.json")
	require.ErrorIs(t, err, ErrNoReports)
}

func TestGlob_BadPattern(t *testing.T) {
	_, err := Glob("testdata/[")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReports)
}
