package export

import (
	"errors"
	"time"

	"siteplan/internal/domain"
)

// Working hours of the exported calendar. Spans start on the working
// morning of the start day and end on the working afternoon of the
// resolved end day.
const (
	workingMorningHour   = 8
	workingAfternoonHour = 17
)

var ErrNoWorkingDays = errors.New("workday configuration has no working days")

// Calendar resolves raw task/milestone dates against the project's workday
// rules. A nil configuration falls back to a Monday–Friday week starting on
// Monday with no holidays.
type Calendar struct {
	startOfWeek time.Weekday
	working     [7]bool
	holidays    map[domain.Date]string
	allowAnyDay bool
}

func NewCalendar(cfg *domain.WorkdayConfiguration) (*Calendar, error) {
	c := &Calendar{
		startOfWeek: time.Monday,
		holidays:    map[domain.Date]string{},
	}
	if cfg == nil {
		for d := time.Monday; d <= time.Friday; d++ {
			c.working[d] = true
		}
		return c, nil
	}
	if len(cfg.WorkingDays) == 0 {
		return nil, ErrNoWorkingDays
	}
	c.startOfWeek = cfg.StartOfWeek.Weekday
	for _, d := range cfg.WorkingDays {
		c.working[d.Weekday] = true
	}
	for _, h := range cfg.Holidays {
		c.holidays[h.Date] = h.Name
	}
	c.allowAnyDay = cfg.AllowWorkOnNonWorkingDays
	return c, nil
}

// StartOfWeek is persisted by the rooted format only.
func (c *Calendar) StartOfWeek() time.Weekday {
	return c.startOfWeek
}

// WorkingWeekdays returns the configured weekday pattern.
func (c *Calendar) WorkingWeekdays() [7]bool {
	return c.working
}

// Holidays returns the configured exception dates in ascending order.
func (c *Calendar) Holidays() []domain.Holiday {
	out := make([]domain.Holiday, 0, len(c.holidays))
	for d, name := range c.holidays {
		out = append(out, domain.Holiday{Name: name, Date: d})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Date.Before(out[j-1].Date.Time); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// IsWorkingDay reports whether the date is a configured working weekday and
// not a holiday.
func (c *Calendar) IsWorkingDay(d domain.Date) bool {
	if !c.working[d.Weekday()] {
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// NextWorkingDay returns d itself when it is a working day, otherwise the
// first working day after it.
func (c *Calendar) NextWorkingDay(d domain.Date) domain.Date {
	for !c.IsWorkingDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// ResolveSpan maps a raw date span onto calendar instants: the working
// morning of the start day and the working afternoon of the resolved end
// day. The start is never shifted. The end day stays put when work on
// non-working days is allowed, otherwise it advances to the next working
// day.
func (c *Calendar) ResolveSpan(start, end domain.Date) (time.Time, time.Time) {
	resolvedEnd := end
	if !c.allowAnyDay {
		resolvedEnd = c.NextWorkingDay(end)
	}
	return start.At(workingMorningHour), resolvedEnd.At(workingAfternoonHour)
}

// DurationDays counts the working days in [start, end] inclusive, plus one
// per non-working endpoint so the span round-trips through tools that clamp
// work to the calendar.
func (c *Calendar) DurationDays(start, end domain.Date) int {
	if end.Before(start.Time) {
		return 0
	}
	days := 0
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			days++
		}
	}
	if !c.IsWorkingDay(start) {
		days++
	}
	if !c.IsWorkingDay(end) && !start.Equal(end.Time) {
		days++
	}
	return days
}
