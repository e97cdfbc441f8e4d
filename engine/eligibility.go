/*
eligibility.go - Per-chore open/paused/done state machines

PURPOSE:
  Decides, for a (chore, kid, completions, today) tuple, whether the chore is
  currently open for completion, and produces the human-facing status badge.

STATE MACHINES BY CHORE TYPE:
  one-off:   not-yet-scheduled -> open -> done (terminal per kid)
  perpetual: open <-> cooldown (5s anti-double-tap debounce)
  repeated:  paused | not-scheduled-today | done-today | open

DESIGN DECISIONS (explicit, not inherited silently):
  1. A weekly schedule with an empty weekday set is NEVER scheduled. The
     schedule label still reads "Weekly" but the chore cannot open until a
     day set is added.
  2. One-off date gating lives here: a chore whose ScheduledFor is a future
     day reports not-yet-scheduled instead of leaving the check to callers.
  3. PausedUntil suppresses a chore of any type while today <= PausedUntil,
     inclusive.
  4. Pending-approval completions block re-completion exactly like approved
     ones; they only differ in the star ledger.

SEE ALSO:
  - clock.go: TodayContext resolution
  - ledger.go: Star totals and reward availability
*/
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// CHORE STATE
// =============================================================================

type ChoreState string

const (
	StateOpen              ChoreState = "open"
	StateDone              ChoreState = "done"      // one-off, completed by this kid
	StateDoneToday         ChoreState = "done-today"
	StateCooldown          ChoreState = "cooldown"
	StatePaused            ChoreState = "paused"
	StateNotScheduledToday ChoreState = "not-scheduled-today"
	StateNotYetScheduled   ChoreState = "not-yet-scheduled"
	StateNotAssigned       ChoreState = "not-assigned"
)

// PerpetualCooldown is the anti-double-tap window for perpetual chores.
// A debounce, not a daily reset: every ~5 seconds is fine.
const PerpetualCooldown = 5000 * time.Millisecond

// =============================================================================
// ELIGIBILITY
// =============================================================================

// EvaluateChore runs the full state machine for one (chore, kid) pair.
func EvaluateChore(chore Chore, kidID KidID, completions []Completion, ctx TodayContext) ChoreState {
	if !chore.AppliesTo(kidID) {
		return StateNotAssigned
	}
	if IsPaused(chore, ctx) {
		return StatePaused
	}

	switch chore.Type {
	case ChoreOneOff:
		if hasAnyCompletion(chore.ID, kidID, completions) {
			return StateDone
		}
		if chore.ScheduledFor != nil && chore.ScheduledFor.After(ctx.Day) {
			return StateNotYetScheduled
		}
		return StateOpen

	case ChorePerpetual:
		if last, ok := latestCompletion(chore.ID, kidID, completions); ok {
			if ctx.Now.Sub(last.Timestamp) < PerpetualCooldown {
				return StateCooldown
			}
		}
		return StateOpen

	case ChoreRepeated:
		if chore.Schedule == nil || !chore.Schedule.ScheduledOn(ctx.Weekday) {
			return StateNotScheduledToday
		}
		if HasCompletedTodayForKid(chore.ID, kidID, completions, ctx) {
			return StateDoneToday
		}
		return StateOpen

	default:
		return StateNotAssigned
	}
}

// IsOpenForKid reports whether the chore can be completed by the kid right
// now. Always false for kids the chore is not assigned to.
func IsOpenForKid(chore Chore, kidID KidID, completions []Completion, ctx TodayContext) bool {
	return EvaluateChore(chore, kidID, completions, ctx) == StateOpen
}

// HasCompletedTodayForKid reports whether any completion for the pair
// resolves to today's civil day.
func HasCompletedTodayForKid(choreID ChoreID, kidID KidID, completions []Completion, ctx TodayContext) bool {
	for _, c := range completions {
		if c.ChoreID != choreID || c.KidID != kidID {
			continue
		}
		if ctx.DayOfTimestamp(c.Timestamp) == ctx.Day {
			return true
		}
	}
	return false
}

// IsPaused reports whether the chore is suppressed by its pause window.
// The pause-until day is inclusive: the chore stays paused through it.
func IsPaused(chore Chore, ctx TodayContext) bool {
	return chore.PausedUntil != nil && chore.PausedUntil.AfterOrEqual(ctx.Day)
}

func hasAnyCompletion(choreID ChoreID, kidID KidID, completions []Completion) bool {
	for _, c := range completions {
		if c.ChoreID == choreID && c.KidID == kidID {
			return true
		}
	}
	return false
}

func latestCompletion(choreID ChoreID, kidID KidID, completions []Completion) (Completion, bool) {
	var latest Completion
	found := false
	for _, c := range completions {
		if c.ChoreID != choreID || c.KidID != kidID {
			continue
		}
		if !found || c.Timestamp.After(latest.Timestamp) {
			latest = c
			found = true
		}
	}
	return latest, found
}

// =============================================================================
// STATUS BADGES
// =============================================================================

type StatusTone string

const (
	ToneNeutral StatusTone = "neutral"
	ToneSuccess StatusTone = "success"
	ToneMuted   StatusTone = "muted"
)

// Status is a human-facing summary for UI badges.
type Status struct {
	Label string
	Tone  StatusTone
}

// RecurringStatus summarizes a repeated chore for a kid.
// Priority: paused > open-today > done-today > next scheduled day > generic.
func RecurringStatus(chore Chore, kidID KidID, completions []Completion, ctx TodayContext) Status {
	if IsPaused(chore, ctx) {
		return Status{Label: fmt.Sprintf("Paused until %s", *chore.PausedUntil), Tone: ToneMuted}
	}

	switch EvaluateChore(chore, kidID, completions, ctx) {
	case StateOpen:
		return Status{Label: "Due today", Tone: ToneNeutral}
	case StateDoneToday:
		return Status{Label: "Done today", Tone: ToneSuccess}
	}

	if chore.Schedule != nil && chore.Schedule.Cadence == CadenceWeekly && len(chore.Schedule.DaysOfWeek) > 0 {
		next := nextScheduledWeekday(*chore.Schedule, ctx.Weekday)
		return Status{Label: fmt.Sprintf("Next on %s", next), Tone: ToneMuted}
	}

	return Status{Label: "Back tomorrow", Tone: ToneMuted}
}

// nextScheduledWeekday finds the first scheduled weekday strictly after the
// given one, wrapping around the week.
func nextScheduledWeekday(s Schedule, from time.Weekday) time.Weekday {
	for offset := 1; offset <= 7; offset++ {
		candidate := time.Weekday((int(from) + offset) % 7)
		if s.ScheduledOn(candidate) {
			return candidate
		}
	}
	return from
}

// ScheduleLabel renders the chore's cadence for display. Pure formatting.
func ScheduleLabel(chore Chore) string {
	switch chore.Type {
	case ChoreOneOff:
		return "One-off"
	case ChorePerpetual:
		return "Perpetual"
	case ChoreRepeated:
		if chore.Schedule == nil {
			return "Repeated"
		}
		switch chore.Schedule.Cadence {
		case CadenceDaily:
			return "Daily"
		case CadenceWeekly:
			if len(chore.Schedule.DaysOfWeek) == 0 {
				return "Weekly"
			}
			return "Weekly · " + weekdayList(chore.Schedule.DaysOfWeek)
		}
		return "Repeated"
	}
	return ""
}

func weekdayList(days []time.Weekday) string {
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	names := make([]string, len(sorted))
	for i, d := range sorted {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ", ")
}
