package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Store paths used to push the schedule predicates down to the settings store
const (
	PathDailyEnabled  = "dailyReminder.enabled"
	PathDailyTime     = "dailyReminder.time"
	PathDailyDays     = "dailyReminder.days"
	PathWeeklyEnabled = "weeklyProgress.enabled"
	PathWeeklyTime    = "weeklyProgress.time"
	PathWeeklyDay     = "weeklyProgress.day"
)

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Clock renders now as zero-padded HH:MM
func Clock(now time.Time) string {
	return fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
}

// Weekday renders now as 0 (Sunday) .. 6 (Saturday)
func Weekday(now time.Time) int {
	return int(now.Weekday())
}

// ValidClock reports whether s is an accepted HH:MM value (single-digit hours allowed)
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// NormalizeClock zero-pads a valid clock value: "7:05" becomes "07:05".
func NormalizeClock(s string) (string, error) {
	if !ValidClock(s) {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	parts := strings.SplitN(s, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// MatchesDaily reports whether the daily reminder is due at exactly this minute.
// The clock comparison is plain string equality: "07:00" never matches "7:00".
func MatchesDaily(s ReminderSchedule, clock string, weekday int) bool {
	if !s.Enabled || s.Time != clock {
		return false
	}
	for _, d := range s.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// MatchesWeekly reports whether the weekly progress report is due at exactly this minute
func MatchesWeekly(s ProgressSchedule, clock string, weekday int) bool {
	return s.Enabled && s.Time == clock && s.Day == weekday
}

// DailyFilters is the store-side equivalent of MatchesDaily
func DailyFilters(clock string, weekday int) []Filter {
	return []Filter{
		{Path: PathDailyEnabled, Op: OpEqual, Value: true},
		{Path: PathDailyTime, Op: OpEqual, Value: clock},
		{Path: PathDailyDays, Op: OpArrayContains, Value: weekday},
	}
}

// WeeklyFilters is the store-side equivalent of MatchesWeekly
func WeeklyFilters(clock string, weekday int) []Filter {
	return []Filter{
		{Path: PathWeeklyEnabled, Op: OpEqual, Value: true},
		{Path: PathWeeklyTime, Op: OpEqual, Value: clock},
		{Path: PathWeeklyDay, Op: OpEqual, Value: weekday},
	}
}
