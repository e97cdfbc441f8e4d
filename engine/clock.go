package engine

import (
	"time"
)

// =============================================================================
// CIVIL DAY - Calendar date in the board's timezone
// =============================================================================

// CivilDay is a YYYY-MM-DD calendar date, independent of instant-in-time
// representation. The textual form orders correctly, so comparisons are
// plain string comparisons.
type CivilDay string

const civilDayLayout = "2006-01-02"

func NewCivilDay(year int, month time.Month, day int) CivilDay {
	return CivilDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(civilDayLayout))
}

// CivilDayOf buckets an instant into the civil day it falls on in loc.
func CivilDayOf(t time.Time, loc *time.Location) CivilDay {
	return CivilDay(t.In(loc).Format(civilDayLayout))
}

// ParseCivilDay parses a YYYY-MM-DD string.
func ParseCivilDay(s string) (CivilDay, error) {
	t, err := time.Parse(civilDayLayout, s)
	if err != nil {
		return "", err
	}
	return CivilDay(t.Format(civilDayLayout)), nil
}

// Comparison (ISO day strings order lexicographically)
func (d CivilDay) Before(other CivilDay) bool        { return d < other }
func (d CivilDay) After(other CivilDay) bool         { return d > other }
func (d CivilDay) BeforeOrEqual(other CivilDay) bool { return d <= other }
func (d CivilDay) AfterOrEqual(other CivilDay) bool  { return d >= other }

func (d CivilDay) IsZero() bool   { return d == "" }
func (d CivilDay) String() string { return string(d) }

// Weekday returns the day of week (Sunday=0). Zero or malformed days report
// Sunday; callers that care validate with ParseCivilDay first.
func (d CivilDay) Weekday() time.Weekday {
	t, err := time.Parse(civilDayLayout, string(d))
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// Next returns the following civil day.
func (d CivilDay) Next() CivilDay {
	t, err := time.Parse(civilDayLayout, string(d))
	if err != nil {
		return d
	}
	return CivilDay(t.AddDate(0, 0, 1).Format(civilDayLayout))
}

// =============================================================================
// CLOCK - Injected time capability
// =============================================================================

// Clock supplies the current instant and the board's civil timezone. The
// engine never reads system time directly; tests fix "today" by injecting
// a FixedClock.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// DefaultTimezone is the civil timezone used when none is configured.
const DefaultTimezone = "America/Los_Angeles"

// SystemClock reads the real wall clock in a fixed timezone.
type SystemClock struct {
	Loc *time.Location
}

// NewSystemClock builds a SystemClock for the named timezone.
func NewSystemClock(tzName string) (*SystemClock, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, err
	}
	return &SystemClock{Loc: loc}, nil
}

func (c *SystemClock) Now() time.Time           { return time.Now() }
func (c *SystemClock) Location() *time.Location { return c.Loc }

// FixedClock reports a fixed instant. For tests.
type FixedClock struct {
	Instant time.Time
	Loc     *time.Location
}

func NewFixedClock(instant time.Time, loc *time.Location) *FixedClock {
	if loc == nil {
		loc = time.UTC
	}
	return &FixedClock{Instant: instant, Loc: loc}
}

func (c *FixedClock) Now() time.Time           { return c.Instant }
func (c *FixedClock) Location() *time.Location { return c.Loc }

// Advance moves the fixed instant forward.
func (c *FixedClock) Advance(d time.Duration) { c.Instant = c.Instant.Add(d) }

// =============================================================================
// TODAY CONTEXT - Resolved "now" for scheduling decisions
// =============================================================================

// TodayContext is the ephemeral value every eligibility decision keys off.
// Recomputed per request, never persisted.
type TodayContext struct {
	Day     CivilDay       // civil date in the board timezone
	Weekday time.Weekday   // weekday of Day
	Now     time.Time      // real current instant, regardless of override
	Loc     *time.Location // timezone used to bucket timestamps into days
}

// DayOfTimestamp buckets an instant into its civil day using the context's
// timezone.
func (ctx TodayContext) DayOfTimestamp(t time.Time) CivilDay {
	loc := ctx.Loc
	if loc == nil {
		loc = time.UTC
	}
	return CivilDayOf(t, loc)
}

// ResolveToday produces a TodayContext from the clock, optionally overridden
// by an explicit day string (deep links let a parent act on yesterday's
// board). Now always comes from the clock: the perpetual-chore cooldown is
// an anti-double-tap debounce and must not follow the override. A malformed
// override falls back to the clock's today rather than erroring.
func ResolveToday(clock Clock, override string) TodayContext {
	now := clock.Now()
	day := CivilDayOf(now, clock.Location())

	if override != "" {
		if parsed, err := ParseCivilDay(override); err == nil {
			day = parsed
		}
	}

	return TodayContext{
		Day:     day,
		Weekday: day.Weekday(),
		Now:     now,
		Loc:     clock.Location(),
	}
}

// DayOf buckets a completion timestamp into its civil day, for "done today"
// checks.
func DayOf(clock Clock, t time.Time) CivilDay {
	return CivilDayOf(t, clock.Location())
}

// DayOfString parses an ISO instant and buckets it into a civil day.
// Malformed timestamps resolve to today - a deliberate leniency so bad data
// degrades to a visible-but-wrong badge instead of a broken page.
func DayOfString(clock Clock, timestamp string) CivilDay {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return CivilDayOf(clock.Now(), clock.Location())
	}
	return CivilDayOf(t, clock.Location())
}
