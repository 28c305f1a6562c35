package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	c, err := ParseCron("*/15 4 1-7 * 0,6")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 15, 30, 45}, c.Minutes)
	assert.Equal(t, []int{4}, c.Hours)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, c.DaysOfMonth)
	assert.Len(t, c.Months, 12)
	assert.Equal(t, []int{0, 6}, c.DaysOfWeek)

	c, err = ParseCron("0-10/5,3 * * * *")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 5, 10}, c.Minutes)
}

func TestParseCron_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"10-5 * * * *",
		"0-70 * * * *",
		"*/0 * * * *",
		"5/2 * * * *",
		"a * * * *",
	} {
		_, err := ParseCron(expr)
		assert.Error(t, err, expr)
	}
}

func TestCronExpr_MatchesAndNext(t *testing.T) {
	c, err := ParseCron("30 4 * * *")
	require.NoError(t, err)

	at := time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC)
	assert.True(t, c.Matches(at))
	assert.False(t, c.Matches(at.Add(time.Minute)))

	assert.Equal(t, at.AddDate(0, 0, 1), c.Next(at))
	assert.Equal(t, at, c.Next(at.Add(-90*time.Second)))

	never, err := ParseCron("0 0 30 2 *")
	require.NoError(t, err)
	assert.True(t, never.Next(at).IsZero())
}
