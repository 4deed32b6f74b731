package effective

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndPeriod(t *testing.T) {
	p := filepath.Join(t.TempDir(), "Effective_Date_Assumptions.csv")
	content := "Rules,Value,Adjustmentstartdate,Adjustmentenddate\n" +
		"Current Month,2025-12-01,,\n" +
		"Last Month,2025-11-01,,\n" +
		"First Day,,12/1/2025 0:00,12/31/2025 23:59\n" +
		"First Monday,,12/1/2025 0:00,1/4/2026 23:59\n" +
		"First Day,,ignored,ignored\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	rules, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Current Month", "Last Month", "First Day", "First Monday"}, rules.Names())

	period, err := rules.CurrentPeriod(true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), period.Start)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), period.MonthEnd)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), period.Filter)

	start, end, ok := rules.Window(1)
	require.True(t, ok)
	assert.Equal(t, "12/1/2025 0:00", start)
	assert.Equal(t, "12/31/2025 23:59", end)

	_, _, ok = rules.Window(3)
	assert.False(t, ok, "rule not present in table")
	_, _, ok = rules.Window(9)
	assert.False(t, ok, "unknown code")
}

func TestCurrentPeriod_MissingRule(t *testing.T) {
	rules := New(Rule{Name: CurrentMonth, Value: "2025-02-01"})

	period, err := rules.CurrentPeriod(false)
	require.NoError(t, err)
	assert.Equal(t, 28, period.MonthEnd.Day())

	_, err = rules.CurrentPeriod(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleMissing)
}

func TestMonthEnd(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tt := range tests {
		t.Run(tt.in.Format("2006-01"), func(t *testing.T) {
			got := MonthEnd(tt.in)
			assert.Equal(t, tt.want, got.Day())
			assert.Equal(t, tt.in.Month(), got.Month())
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2025-09-01", "9/1/2025", "09/01/2025", "2025-09-01 00:00:00"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.September, d.Month())
		assert.Equal(t, 1, d.Day())
	}
	_, err := ParseDate("first of the month")
	assert.Error(t, err)
}
