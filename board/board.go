/*
Package board is the mutation layer over the chore engine.

PURPOSE:
  The engine computes derived state; this package changes state. Every
  mutation follows the same shape:

    1. Load the whole document (plus its revision)
    2. Validate preconditions by calling into the engine
    3. Apply the change in memory
    4. Save the whole document with a revision check

  A revision conflict means another writer got there first; the mutation is
  replayed against the fresh document a bounded number of times. Replaying
  re-runs the precondition checks, so the second of two simultaneous
  "complete" taps is rejected rather than double-awarded.

DAY OVERRIDES:
  Mutations accept an optional day override (YYYY-MM-DD). Approval and undo
  deep links carry one so a parent can act on yesterday's board from a stale
  link. The override moves the civil day only; the perpetual-chore cooldown
  always uses the real clock.

SEE ALSO:
  - store.go: DocumentStore contract
  - engine/eligibility.go: The precondition checks this package relies on
*/
package board

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/starboard/chore-engine/engine"
)

// defaultMaxRetries bounds replays after revision conflicts.
const defaultMaxRetries = 3

// Service applies board mutations with engine-validated preconditions.
type Service struct {
	Store DocumentStore
	Clock engine.Clock

	// MaxRetries overrides the conflict retry bound when > 0.
	MaxRetries int
}

func NewService(store DocumentStore, clock engine.Clock) *Service {
	return &Service{Store: store, Clock: clock}
}

// Today resolves the current scheduling context, honoring an optional
// day override.
func (s *Service) Today(overrideDay string) engine.TodayContext {
	return engine.ResolveToday(s.Clock, overrideDay)
}

// Document returns the current board document.
func (s *Service) Document(ctx context.Context) (*engine.Document, error) {
	doc, _, err := s.Store.Load(ctx)
	return doc, err
}

// mutate runs fn against a fresh document and saves it with a revision
// check, retrying on conflict.
func (s *Service) mutate(ctx context.Context, fn func(doc *engine.Document) error) error {
	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		var doc *engine.Document
		var rev Revision
		doc, rev, err = s.Store.Load(ctx)
		if err != nil {
			return err
		}

		if err = fn(doc); err != nil {
			return err
		}

		err = s.Store.Save(ctx, doc, rev)
		if !errors.Is(err, engine.ErrConcurrentModification) {
			return err
		}
	}
	return err
}

// =============================================================================
// CHORE COMPLETION
// =============================================================================

// CompleteChore records a completion for (choreID, kidID), provided the
// chore is open for the kid right now. Chores that require approval produce
// a pending completion that a parent confirms via ApproveCompletion.
func (s *Service) CompleteChore(ctx context.Context, choreID engine.ChoreID, kidID engine.KidID, overrideDay string) (*engine.Completion, error) {
	var result engine.Completion

	err := s.mutate(ctx, func(doc *engine.Document) error {
		chore := doc.Chore(choreID)
		if chore == nil {
			return engine.ErrChoreNotFound
		}
		if doc.Kid(kidID) == nil {
			return engine.ErrKidNotFound
		}

		today := s.Today(overrideDay)
		if state := engine.EvaluateChore(*chore, kidID, doc.Completions, today); state != engine.StateOpen {
			return &engine.ChoreClosedError{ChoreID: choreID, KidID: kidID, State: state}
		}

		result = engine.Completion{
			ID:              engine.CompletionID(uuid.NewString()),
			ChoreID:         choreID,
			KidID:           kidID,
			Timestamp:       s.Clock.Now(),
			StarsAwarded:    chore.Stars,
			PendingApproval: chore.RequiresApproval,
		}
		doc.Completions = append(doc.Completions, result)

		if chore.Type == engine.ChoreOneOff && chore.CompletedAt == nil {
			t := result.Timestamp
			chore.CompletedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveCompletion confirms a pending completion, releasing its stars into
// the kid's balance.
func (s *Service) ApproveCompletion(ctx context.Context, completionID engine.CompletionID) (*engine.Completion, error) {
	var result engine.Completion

	err := s.mutate(ctx, func(doc *engine.Document) error {
		c := doc.Completion(completionID)
		if c == nil {
			return engine.ErrCompletionNotFound
		}
		if !c.PendingApproval {
			return engine.ErrNotPendingApproval
		}
		c.PendingApproval = false
		result = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UndoCompletion removes a completion record. Undo is removal, not a
// compensating negative entry, so the kid's star total drops by exactly the
// removed StarsAwarded. Undoing the only completion of a one-off chore
// reopens it by clearing CompletedAt.
func (s *Service) UndoCompletion(ctx context.Context, completionID engine.CompletionID) error {
	return s.mutate(ctx, func(doc *engine.Document) error {
		c := doc.Completion(completionID)
		if c == nil {
			return engine.ErrCompletionNotFound
		}
		choreID := c.ChoreID

		doc.RemoveCompletion(completionID)

		if chore := doc.Chore(choreID); chore != nil && chore.Type == engine.ChoreOneOff {
			remaining := false
			for _, other := range doc.Completions {
				if other.ChoreID == choreID {
					remaining = true
					break
				}
			}
			if !remaining {
				chore.CompletedAt = nil
			}
		}
		return nil
	})
}

// =============================================================================
// REWARD REDEMPTION
// =============================================================================

// RedeemReward spends a kid's stars on a reward. Availability (archived,
// assignment, one-off already taken) and affordability are both checked
// against the document the write will land on.
func (s *Service) RedeemReward(ctx context.Context, rewardID engine.RewardID, kidID engine.KidID) (*engine.RewardRedemption, error) {
	var result engine.RewardRedemption

	err := s.mutate(ctx, func(doc *engine.Document) error {
		reward := doc.Reward(rewardID)
		if reward == nil {
			return engine.ErrRewardNotFound
		}
		if doc.Kid(kidID) == nil {
			return engine.ErrKidNotFound
		}

		if !engine.RewardAvailableForKid(*reward, kidID, doc.Redemptions) {
			return engine.ErrRewardUnavailable
		}

		balance := engine.StarBalanceForKid(doc.Completions, doc.Redemptions, kidID)
		if !engine.CanAfford(*reward, balance) {
			return &engine.InsufficientStarsError{
				KidID:     kidID,
				RewardID:  rewardID,
				Balance:   balance,
				Cost:      reward.Cost,
				Shortfall: reward.Cost.Sub(balance),
			}
		}

		result = engine.RewardRedemption{
			ID:        engine.RedemptionID(uuid.NewString()),
			RewardID:  rewardID,
			KidID:     kidID,
			Timestamp: s.Clock.Now(),
			Cost:      reward.Cost,
		}
		doc.Redemptions = append(doc.Redemptions, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// PAUSE WINDOWS
// =============================================================================

// PauseChore suppresses a chore through the given day, inclusive.
func (s *Service) PauseChore(ctx context.Context, choreID engine.ChoreID, until engine.CivilDay) error {
	return s.mutate(ctx, func(doc *engine.Document) error {
		chore := doc.Chore(choreID)
		if chore == nil {
			return engine.ErrChoreNotFound
		}
		day := until
		chore.PausedUntil = &day
		return nil
	})
}

// ResumeChore clears a chore's pause window.
func (s *Service) ResumeChore(ctx context.Context, choreID engine.ChoreID) error {
	return s.mutate(ctx, func(doc *engine.Document) error {
		chore := doc.Chore(choreID)
		if chore == nil {
			return engine.ErrChoreNotFound
		}
		chore.PausedUntil = nil
		return nil
	})
}

// =============================================================================
// KID CRUD
// =============================================================================

func (s *Service) AddKid(ctx context.Context, name, color string) (*engine.Kid, error) {
	kid := engine.Kid{
		ID:        engine.KidID(uuid.NewString()),
		Name:      name,
		Color:     color,
		CreatedAt: s.Clock.Now(),
	}
	err := s.mutate(ctx, func(doc *engine.Document) error {
		doc.Kids = append(doc.Kids, kid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &kid, nil
}

// UpdateKid renames and/or recolors a kid. Empty fields are left unchanged.
func (s *Service) UpdateKid(ctx context.Context, kidID engine.KidID, name, color string) (*engine.Kid, error) {
	var result engine.Kid
	err := s.mutate(ctx, func(doc *engine.Document) error {
		kid := doc.Kid(kidID)
		if kid == nil {
			return engine.ErrKidNotFound
		}
		if name != "" {
			kid.Name = name
		}
		if color != "" {
			kid.Color = color
		}
		result = *kid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// CHORE CRUD
// =============================================================================

// ChoreInput carries the mutable fields of a chore definition.
type ChoreInput struct {
	KidIDs           []engine.KidID
	Title            string
	Emoji            string
	Stars            engine.Stars
	Type             engine.ChoreType
	Schedule         *engine.Schedule
	ScheduledFor     *engine.CivilDay
	TimeOfDay        engine.TimeOfDay
	RequiresApproval bool
}

func (s *Service) AddChore(ctx context.Context, in ChoreInput) (*engine.Chore, error) {
	chore := engine.Chore{
		ID:               engine.ChoreID(uuid.NewString()),
		KidIDs:           in.KidIDs,
		Title:            in.Title,
		Emoji:            in.Emoji,
		Stars:            in.Stars,
		Type:             in.Type,
		Schedule:         in.Schedule,
		ScheduledFor:     in.ScheduledFor,
		TimeOfDay:        in.TimeOfDay,
		RequiresApproval: in.RequiresApproval,
		CreatedAt:        s.Clock.Now(),
	}
	err := s.mutate(ctx, func(doc *engine.Document) error {
		for _, kidID := range in.KidIDs {
			if doc.Kid(kidID) == nil {
				return engine.ErrKidNotFound
			}
		}
		doc.Chores = append(doc.Chores, chore)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &chore, nil
}

func (s *Service) UpdateChore(ctx context.Context, choreID engine.ChoreID, in ChoreInput) (*engine.Chore, error) {
	var result engine.Chore
	err := s.mutate(ctx, func(doc *engine.Document) error {
		chore := doc.Chore(choreID)
		if chore == nil {
			return engine.ErrChoreNotFound
		}
		for _, kidID := range in.KidIDs {
			if doc.Kid(kidID) == nil {
				return engine.ErrKidNotFound
			}
		}
		chore.KidIDs = in.KidIDs
		chore.Title = in.Title
		chore.Emoji = in.Emoji
		chore.Stars = in.Stars
		chore.Type = in.Type
		chore.Schedule = in.Schedule
		chore.ScheduledFor = in.ScheduledFor
		chore.TimeOfDay = in.TimeOfDay
		chore.RequiresApproval = in.RequiresApproval
		result = *chore
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteChore removes a chore definition. Its completion history is kept:
// stars already earned stay earned.
func (s *Service) DeleteChore(ctx context.Context, choreID engine.ChoreID) error {
	return s.mutate(ctx, func(doc *engine.Document) error {
		for i := range doc.Chores {
			if doc.Chores[i].ID == choreID {
				doc.Chores = append(doc.Chores[:i], doc.Chores[i+1:]...)
				return nil
			}
		}
		return engine.ErrChoreNotFound
	})
}

// =============================================================================
// REWARD CRUD
// =============================================================================

// RewardInput carries the mutable fields of a reward definition.
type RewardInput struct {
	KidIDs []engine.KidID
	Title  string
	Emoji  string
	Cost   engine.Stars
	Type   engine.RewardType
}

func (s *Service) AddReward(ctx context.Context, in RewardInput) (*engine.Reward, error) {
	reward := engine.Reward{
		ID:        engine.RewardID(uuid.NewString()),
		KidIDs:    in.KidIDs,
		Title:     in.Title,
		Emoji:     in.Emoji,
		Cost:      in.Cost,
		Type:      in.Type,
		CreatedAt: s.Clock.Now(),
	}
	err := s.mutate(ctx, func(doc *engine.Document) error {
		for _, kidID := range in.KidIDs {
			if doc.Kid(kidID) == nil {
				return engine.ErrKidNotFound
			}
		}
		doc.Rewards = append(doc.Rewards, reward)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func (s *Service) UpdateReward(ctx context.Context, rewardID engine.RewardID, in RewardInput) (*engine.Reward, error) {
	var result engine.Reward
	err := s.mutate(ctx, func(doc *engine.Document) error {
		reward := doc.Reward(rewardID)
		if reward == nil {
			return engine.ErrRewardNotFound
		}
		reward.KidIDs = in.KidIDs
		reward.Title = in.Title
		reward.Emoji = in.Emoji
		reward.Cost = in.Cost
		reward.Type = in.Type
		result = *reward
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ArchiveReward hides a reward from redemption without erasing its history.
func (s *Service) ArchiveReward(ctx context.Context, rewardID engine.RewardID) error {
	return s.mutate(ctx, func(doc *engine.Document) error {
		reward := doc.Reward(rewardID)
		if reward == nil {
			return engine.ErrRewardNotFound
		}
		reward.Archived = true
		return nil
	})
}

// =============================================================================
// PENDING APPROVALS
// =============================================================================

// PendingApprovals lists completions waiting for a parent, oldest first.
func (s *Service) PendingApprovals(ctx context.Context) ([]engine.Completion, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	var pending []engine.Completion
	for _, c := range doc.Completions {
		if c.PendingApproval {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})
	return pending, nil
}
