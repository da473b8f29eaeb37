package domain

// FilterOp is a settings store comparison operator
type FilterOp string

const (
	OpEqual         FilterOp = "=="
	OpArrayContains FilterOp = "array-contains"
)

// Filter is one condition on a nested settings field, e.g. dailyReminder.days array-contains 1
type Filter struct {
	Path  string
	Op    FilterOp
	Value interface{}
}

// Field returns the value stored at path, used by stores that evaluate filters in process
func (s Settings) Field(path string) (interface{}, bool) {
	switch path {
	case PathDailyEnabled:
		return s.DailyReminder.Enabled, true
	case PathDailyTime:
		return s.DailyReminder.Time, true
	case PathDailyDays:
		return s.DailyReminder.Days, true
	case PathWeeklyEnabled:
		return s.WeeklyProgress.Enabled, true
	case PathWeeklyTime:
		return s.WeeklyProgress.Time, true
	case PathWeeklyDay:
		return s.WeeklyProgress.Day, true
	}
	return nil, false
}

// Satisfies evaluates f against s
func (s Settings) Satisfies(f Filter) bool {
	v, ok := s.Field(f.Path)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		// list fields only support array-contains
		if _, isList := v.([]int); isList {
			return false
		}
		if _, isList := f.Value.([]int); isList {
			return false
		}
		return v == f.Value
	case OpArrayContains:
		days, ok := v.([]int)
		if !ok {
			return false
		}
		want, ok := f.Value.(int)
		if !ok {
			return false
		}
		for _, d := range days {
			if d == want {
				return true
			}
		}
	}
	return false
}
