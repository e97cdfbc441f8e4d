/*
Package engine provides the core chore scheduling and star-ledger engine.

PURPOSE:
  This package contains the pure domain model and algorithms for a family
  chore board: deciding when a chore is open for a kid, folding completion
  history into star balances, and checking reward availability. Everything
  here is a total function over in-memory data - no I/O, no persisted state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Stars: A star quantity backed by decimal.Decimal
  - Kid/Chore/Reward: The persistent entity definitions
  - Completion/RewardRedemption: Immutable history events
  - Document: The aggregate holding all entities together

DESIGN PRINCIPLES:
  1. Purity: The engine computes derived state from whatever document it is
     given; mutation lives in the board package.
  2. Precision: Uses decimal.Decimal so star arithmetic never drifts.
  3. Events over state: Balances are folded from completion/redemption
     history, not stored as counters that can go out of sync.
  4. Leniency at the edges: Unknown references resolve to false/closed
     rather than erroring - this feeds presentation, not accounting audits.

SEE ALSO:
  - clock.go: Civil-day resolution in a fixed timezone
  - eligibility.go: Per-chore open/paused/done state machines
  - ledger.go: Star balance and reward availability aggregation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STARS - Star quantity
// =============================================================================

type Stars struct {
	Value decimal.Decimal
}

func NewStars(value int) Stars {
	return Stars{Value: decimal.NewFromInt(int64(value))}
}

func MustParseStars(s string) Stars {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Stars{Value: decimal.Zero}
	}
	return Stars{Value: d}
}

func (s Stars) Add(o Stars) Stars        { return Stars{Value: s.Value.Add(o.Value)} }
func (s Stars) Sub(o Stars) Stars        { return Stars{Value: s.Value.Sub(o.Value)} }
func (s Stars) Neg() Stars               { return Stars{Value: s.Value.Neg()} }
func (s Stars) IsZero() bool             { return s.Value.IsZero() }
func (s Stars) IsNegative() bool         { return s.Value.IsNegative() }
func (s Stars) Equal(o Stars) bool       { return s.Value.Equal(o.Value) }
func (s Stars) GreaterThan(o Stars) bool { return s.Value.GreaterThan(o.Value) }
func (s Stars) LessThan(o Stars) bool    { return s.Value.LessThan(o.Value) }
func (s Stars) String() string           { return s.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type KidID string
type ChoreID string
type CompletionID string
type RewardID string
type RedemptionID string

// =============================================================================
// KID - Household member
// =============================================================================

type Kid struct {
	ID        KidID
	Name      string
	Color     string // display accent only
	CreatedAt time.Time
}

// =============================================================================
// CHORE - Task definition
// =============================================================================

type ChoreType string

const (
	ChoreOneOff    ChoreType = "one-off"   // Completed at most once per kid, ever
	ChoreRepeated  ChoreType = "repeated"  // Once per scheduled civil day
	ChorePerpetual ChoreType = "perpetual" // Repeatable, gated only by a short cooldown
)

type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

type TimeOfDay string

const (
	TimeAny       TimeOfDay = "" // unset = any time
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
)

// Schedule describes when a repeated chore recurs. Weekly cadence carries an
// explicit weekday set; an empty set means the chore is never scheduled.
type Schedule struct {
	Cadence    Cadence
	DaysOfWeek []time.Weekday
}

// ScheduledOn reports whether the schedule lands on the given weekday.
func (s Schedule) ScheduledOn(wd time.Weekday) bool {
	switch s.Cadence {
	case CadenceDaily:
		return true
	case CadenceWeekly:
		for _, d := range s.DaysOfWeek {
			if d == wd {
				return true
			}
		}
		return false
	default:
		return false
	}
}

type Chore struct {
	ID     ChoreID
	KidIDs []KidID
	Title  string
	Emoji  string
	Stars  Stars
	Type   ChoreType

	Schedule     *Schedule // repeated chores only
	PausedUntil  *CivilDay // inclusive: suppressed while today <= PausedUntil
	ScheduledFor *CivilDay // one-off chores: target day

	TimeOfDay        TimeOfDay
	RequiresApproval bool

	CreatedAt   time.Time
	CompletedAt *time.Time // set once, for one-off chores
}

// AppliesTo reports whether the chore is assigned to the kid.
func (c Chore) AppliesTo(kidID KidID) bool {
	for _, id := range c.KidIDs {
		if id == kidID {
			return true
		}
	}
	return false
}

// =============================================================================
// COMPLETION - Immutable event
// =============================================================================

// Completion records a kid finishing a chore. Append-only from the engine's
// point of view; "undo" removes the specific record rather than writing a
// compensating negative entry.
type Completion struct {
	ID           CompletionID
	ChoreID      ChoreID
	KidID        KidID
	Timestamp    time.Time
	StarsAwarded Stars

	// PendingApproval marks a completion that was recorded against a chore
	// with RequiresApproval set and is waiting for a parent. Pending
	// completions block re-completion but do not count toward star totals.
	PendingApproval bool
}

// =============================================================================
// REWARD - Redeemable item
// =============================================================================

type RewardType string

const (
	RewardOneOff    RewardType = "one-off"   // Redeemable once per kid
	RewardPerpetual RewardType = "perpetual" // Redeemable repeatedly
)

type Reward struct {
	ID        RewardID
	KidIDs    []KidID
	Title     string
	Emoji     string
	Cost      Stars
	Type      RewardType
	Archived  bool
	CreatedAt time.Time
}

func (r Reward) AppliesTo(kidID KidID) bool {
	for _, id := range r.KidIDs {
		if id == kidID {
			return true
		}
	}
	return false
}

// RewardRedemption records a kid spending stars on a reward. Cost is captured
// at redemption time and may differ from the reward's current cost.
type RewardRedemption struct {
	ID        RedemptionID
	RewardID  RewardID
	KidID     KidID
	Timestamp time.Time
	Cost      Stars
}

// =============================================================================
// DOCUMENT - Aggregate holding all persistent entities
// =============================================================================

// Document is the whole-board aggregate. The persistence layer reads and
// writes it wholesale; the engine only ever computes over it.
type Document struct {
	Kids        []Kid
	Chores      []Chore
	Completions []Completion
	Rewards     []Reward
	Redemptions []RewardRedemption
}

func (d *Document) Kid(id KidID) *Kid {
	for i := range d.Kids {
		if d.Kids[i].ID == id {
			return &d.Kids[i]
		}
	}
	return nil
}

func (d *Document) Chore(id ChoreID) *Chore {
	for i := range d.Chores {
		if d.Chores[i].ID == id {
			return &d.Chores[i]
		}
	}
	return nil
}

func (d *Document) Reward(id RewardID) *Reward {
	for i := range d.Rewards {
		if d.Rewards[i].ID == id {
			return &d.Rewards[i]
		}
	}
	return nil
}

func (d *Document) Completion(id CompletionID) *Completion {
	for i := range d.Completions {
		if d.Completions[i].ID == id {
			return &d.Completions[i]
		}
	}
	return nil
}

// RemoveCompletion deletes the completion with the given ID.
// Returns false if no such completion exists.
func (d *Document) RemoveCompletion(id CompletionID) bool {
	for i := range d.Completions {
		if d.Completions[i].ID == id {
			d.Completions = append(d.Completions[:i], d.Completions[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Stores hand callers a clone so in-memory
// mutation never leaks into shared state before a versioned save.
func (d *Document) Clone() *Document {
	out := &Document{
		Kids:        append([]Kid(nil), d.Kids...),
		Chores:      make([]Chore, len(d.Chores)),
		Completions: append([]Completion(nil), d.Completions...),
		Rewards:     make([]Reward, len(d.Rewards)),
		Redemptions: append([]RewardRedemption(nil), d.Redemptions...),
	}
	for i, c := range d.Chores {
		cc := c
		cc.KidIDs = append([]KidID(nil), c.KidIDs...)
		if c.Schedule != nil {
			sched := *c.Schedule
			sched.DaysOfWeek = append([]time.Weekday(nil), c.Schedule.DaysOfWeek...)
			cc.Schedule = &sched
		}
		if c.PausedUntil != nil {
			day := *c.PausedUntil
			cc.PausedUntil = &day
		}
		if c.ScheduledFor != nil {
			day := *c.ScheduledFor
			cc.ScheduledFor = &day
		}
		if c.CompletedAt != nil {
			t := *c.CompletedAt
			cc.CompletedAt = &t
		}
		out.Chores[i] = cc
	}
	for i, r := range d.Rewards {
		rr := r
		rr.KidIDs = append([]KidID(nil), r.KidIDs...)
		out.Rewards[i] = rr
	}
	return out
}
