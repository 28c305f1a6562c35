package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CronExpr is a parsed 5-field cron expression (minute, hour, day-of-month,
// month, day-of-week).
type CronExpr struct {
	Minutes     []int
	Hours       []int
	DaysOfMonth []int
	Months      []int
	DaysOfWeek  []int
}

type fieldSpec struct {
	name     string
	min, max int
}

var fields = [5]fieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

func ParseCron(expr string) (*CronExpr, error) {
	parts := strings.Fields(expr)
	if len(parts) != len(fields) {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(parts))
	}

	var parsed [5][]int
	for i, f := range fields {
		vals, err := parseField(parts[i], f.min, f.max)
		if err != nil {
			return nil, fmt.Errorf("%s field: %w", f.name, err)
		}
		parsed[i] = vals
	}

	return &CronExpr{
		Minutes:     parsed[0],
		Hours:       parsed[1],
		DaysOfMonth: parsed[2],
		Months:      parsed[3],
		DaysOfWeek:  parsed[4],
	}, nil
}

func (c *CronExpr) Matches(t time.Time) bool {
	return slices.Contains(c.Minutes, t.Minute()) &&
		slices.Contains(c.Hours, t.Hour()) &&
		slices.Contains(c.DaysOfMonth, t.Day()) &&
		slices.Contains(c.Months, int(t.Month())) &&
		slices.Contains(c.DaysOfWeek, int(t.Weekday()))
}

// Next returns the first minute strictly after t that matches, searching at
// most a year ahead. The zero time is returned when nothing matches (for
// example February 30th).
func (c *CronExpr) Next(t time.Time) time.Time {
	next := t.Truncate(time.Minute).Add(time.Minute)
	limit := next.AddDate(1, 0, 1)
	for next.Before(limit) {
		if c.Matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}
	return time.Time{}
}

// parseField accepts *, */n, n, n-m, n-m/s and comma-separated lists of those.
func parseField(field string, min, max int) ([]int, error) {
	var result []int
	for _, part := range strings.Split(field, ",") {
		vals, err := parsePart(part, min, max)
		if err != nil {
			return nil, err
		}
		result = append(result, vals...)
	}
	slices.Sort(result)
	return slices.Compact(result), nil
}

func parsePart(part string, min, max int) ([]int, error) {
	rangePart, stepPart, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		s, err := strconv.Atoi(stepPart)
		if err != nil || s <= 0 {
			return nil, fmt.Errorf("invalid step: %s", part)
		}
		step = s
	}

	lo, hi := min, max
	switch {
	case rangePart == "*":
	case strings.Contains(rangePart, "-"):
		loStr, hiStr, _ := strings.Cut(rangePart, "-")
		var err error
		if lo, err = strconv.Atoi(loStr); err != nil {
			return nil, fmt.Errorf("invalid range start: %s", loStr)
		}
		if hi, err = strconv.Atoi(hiStr); err != nil {
			return nil, fmt.Errorf("invalid range end: %s", hiStr)
		}
		if lo > hi {
			return nil, fmt.Errorf("invalid range: %s", rangePart)
		}
	default:
		if hasStep {
			return nil, fmt.Errorf("step requires * or a range: %s", part)
		}
		val, err := strconv.Atoi(rangePart)
		if err != nil {
			return nil, fmt.Errorf("invalid value: %s", rangePart)
		}
		lo, hi = val, val
	}
	if lo < min || hi > max {
		return nil, fmt.Errorf("value out of range %d-%d: %s", min, max, part)
	}

	var vals []int
	for i := lo; i <= hi; i += step {
		vals = append(vals, i)
	}
	return vals, nil
}
