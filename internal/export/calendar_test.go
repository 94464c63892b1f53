package export

import (
	"testing"
	"time"

	"siteplan/internal/domain"
)

func weekdays(days ...time.Weekday) []domain.Weekday {
	out := make([]domain.Weekday, len(days))
	for i, d := range days {
		out[i] = domain.Weekday{Weekday: d}
	}
	return out
}

func monFriConfig() *domain.WorkdayConfiguration {
	return &domain.WorkdayConfiguration{
		StartOfWeek: domain.Weekday{Weekday: time.Monday},
		WorkingDays: weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	}
}

func TestCalendarEmptyWorkingDays(t *testing.T) {
	_, err := NewCalendar(&domain.WorkdayConfiguration{})
	if err != ErrNoWorkingDays {
		t.Fatalf("expected ErrNoWorkingDays, got %v", err)
	}
}

func TestCalendarNilConfigDefaults(t *testing.T) {
	cal, err := NewCalendar(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cal.StartOfWeek() != time.Monday {
		t.Fatalf("expected Monday week start, got %v", cal.StartOfWeek())
	}
	// 2026-08-24 is a Monday.
	if !cal.IsWorkingDay(domain.NewDate(2026, time.August, 24)) {
		t.Fatal("Monday should be a working day")
	}
	if cal.IsWorkingDay(domain.NewDate(2026, time.August, 29)) {
		t.Fatal("Saturday should not be a working day")
	}
}

func TestResolveSpanExtendsOverWeekend(t *testing.T) {
	cal, err := NewCalendar(monFriConfig())
	if err != nil {
		t.Fatal(err)
	}
	start := domain.NewDate(2026, time.August, 24) // Monday
	end := domain.NewDate(2026, time.August, 29)   // Saturday

	s, e := cal.ResolveSpan(start, end)
	if got := s.Format("2006-01-02 15:04"); got != "2026-08-24 08:00" {
		t.Fatalf("start = %s", got)
	}
	// Saturday end rolls to the following Monday's working afternoon.
	if got := e.Format("2006-01-02 15:04"); got != "2026-08-31 17:00" {
		t.Fatalf("end = %s", got)
	}
}

func TestResolveSpanAllowNonWorkingDays(t *testing.T) {
	cfg := monFriConfig()
	cfg.AllowWorkOnNonWorkingDays = true
	cal, err := NewCalendar(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, e := cal.ResolveSpan(domain.NewDate(2026, time.August, 24), domain.NewDate(2026, time.August, 29))
	if got := e.Format("2006-01-02 15:04"); got != "2026-08-29 17:00" {
		t.Fatalf("end = %s", got)
	}
}

func TestResolveSpanSkipsHoliday(t *testing.T) {
	cfg := monFriConfig()
	// 2026-08-27 is a Thursday.
	cfg.Holidays = []domain.Holiday{{Name: "site closed", Date: domain.NewDate(2026, time.August, 27)}}
	cal, err := NewCalendar(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, e := cal.ResolveSpan(domain.NewDate(2026, time.August, 24), domain.NewDate(2026, time.August, 27))
	if got := e.Format("2006-01-02 15:04"); got != "2026-08-28 17:00" {
		t.Fatalf("end = %s, want Friday", got)
	}
}

func TestDurationDaysCountsNonWorkingEndpoints(t *testing.T) {
	cal, err := NewCalendar(monFriConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Monday through Friday: five working days.
	if got := cal.DurationDays(domain.NewDate(2026, time.August, 24), domain.NewDate(2026, time.August, 28)); got != 5 {
		t.Fatalf("Mon-Fri duration = %d", got)
	}
	// Monday through Saturday: five working days plus the Saturday endpoint.
	if got := cal.DurationDays(domain.NewDate(2026, time.August, 24), domain.NewDate(2026, time.August, 29)); got != 6 {
		t.Fatalf("Mon-Sat duration = %d", got)
	}
}
