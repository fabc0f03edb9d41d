package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTestCaseIDs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"comma terminated", "101,202,", []string{"101", "202"}},
		{"empty", "", []string{}},
		{"duplicates kept", "7,7,", []string{"7", "7"}},
		{"whitespace trimmed", " 5 , 6", []string{"5", "6"}},
		{"only separators", ",,,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ScenarioRow{TestCaseIDs: tt.in}
			assert.Equal(t, tt.want, row.SplitTestCaseIDs())
		})
	}
}

func TestNewResultRecord(t *testing.T) {
	r := NewResultRecord(2, 77)

	assert.Equal(t, int64(100002), r.ID)
	assert.Equal(t, int64(77), r.PointID)
	assert.Equal(t, StatePending, r.State)
	assert.Empty(t, r.Outcome)
	assert.Equal(t, DefaultComment, r.Comment)
	assert.False(t, r.Completed())
}

func TestStatusOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PASSED", OutcomePassed},
		{"failed", OutcomeFailed},
		{"Skipped", OutcomeNotExecuted},
		{"pending", OutcomeNotExecuted},
		{"UNDEFINED", OutcomeBlocked},
		{"ambiguous", OutcomeBlocked},
		{"weird", OutcomeInconclusive},
		{"", OutcomeInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.in).Outcome())
		})
	}
}
