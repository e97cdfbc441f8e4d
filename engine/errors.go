/*
errors.go - Centralized error types for the chore engine

PURPOSE:
  All error values in one place. The engine itself is pure and total over
  its inputs, so these errors are raised by the board (mutation) layer when
  a precondition check against the engine fails, and by stores.

USAGE:
  The board package wraps these with context:

    if errors.Is(err, engine.ErrChoreNotOpen) { ... }

    var closed *engine.ChoreClosedError
    if errors.As(err, &closed) { ... closed.State ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrChoreNotOpen is returned when completing a chore that is not in the
	// open state for the kid.
	ErrChoreNotOpen = errors.New("chore not open")

	// ErrChorePaused is returned when completing a chore inside its pause window.
	ErrChorePaused = errors.New("chore paused")

	// ErrChoreAlreadyDone is returned for a one-off chore the kid already completed.
	ErrChoreAlreadyDone = errors.New("one-off chore already completed")

	// ErrAlreadyCompletedToday is returned for a repeated chore already done
	// this civil day.
	ErrAlreadyCompletedToday = errors.New("chore already completed today")

	// ErrNotScheduledToday is returned for a repeated chore off its schedule.
	ErrNotScheduledToday = errors.New("chore not scheduled today")

	// ErrNotYetScheduled is returned for a one-off chore whose target day is
	// still in the future.
	ErrNotYetScheduled = errors.New("chore not yet scheduled")

	// ErrCooldownActive is returned when a perpetual chore is tapped again
	// inside its debounce window.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrInsufficientStars is returned when a redemption exceeds the kid's balance.
	ErrInsufficientStars = errors.New("insufficient stars")

	// ErrRewardUnavailable is returned when a reward is archived, unassigned,
	// or a one-off already redeemed by the kid.
	ErrRewardUnavailable = errors.New("reward unavailable")

	// ErrNotPendingApproval is returned when approving a completion that is
	// not waiting for approval.
	ErrNotPendingApproval = errors.New("completion not pending approval")

	// ErrKidNotFound / ErrChoreNotFound / ErrRewardNotFound / ErrCompletionNotFound
	// are returned when a mutation references a nonexistent entity.
	ErrKidNotFound        = errors.New("kid not found")
	ErrChoreNotFound      = errors.New("chore not found")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrCompletionNotFound = errors.New("completion not found")

	// ErrConcurrentModification is returned when a versioned document save
	// detects a conflicting writer.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ChoreClosedError reports why a completion attempt was rejected.
type ChoreClosedError struct {
	ChoreID ChoreID
	KidID   KidID
	State   ChoreState
}

func (e *ChoreClosedError) Error() string {
	return fmt.Sprintf("chore %s closed for %s: %s", e.ChoreID, e.KidID, e.State)
}

// Unwrap maps the state to its sentinel so errors.Is works on both levels.
func (e *ChoreClosedError) Unwrap() error {
	switch e.State {
	case StatePaused:
		return ErrChorePaused
	case StateDone:
		return ErrChoreAlreadyDone
	case StateDoneToday:
		return ErrAlreadyCompletedToday
	case StateNotScheduledToday:
		return ErrNotScheduledToday
	case StateNotYetScheduled:
		return ErrNotYetScheduled
	case StateCooldown:
		return ErrCooldownActive
	default:
		return ErrChoreNotOpen
	}
}

// InsufficientStarsError details a balance shortage at redemption time.
type InsufficientStarsError struct {
	KidID     KidID
	RewardID  RewardID
	Balance   Stars
	Cost      Stars
	Shortfall Stars
}

func (e *InsufficientStarsError) Error() string {
	return fmt.Sprintf("insufficient stars: balance %s, cost %s, short %s",
		e.Balance, e.Cost, e.Shortfall)
}

func (e *InsufficientStarsError) Unwrap() error {
	return ErrInsufficientStars
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault (HTTP 4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrChoreNotOpen) ||
		errors.Is(err, ErrChorePaused) ||
		errors.Is(err, ErrChoreAlreadyDone) ||
		errors.Is(err, ErrAlreadyCompletedToday) ||
		errors.Is(err, ErrNotScheduledToday) ||
		errors.Is(err, ErrNotYetScheduled) ||
		errors.Is(err, ErrCooldownActive) ||
		errors.Is(err, ErrInsufficientStars) ||
		errors.Is(err, ErrRewardUnavailable) ||
		errors.Is(err, ErrNotPendingApproval)
}

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKidNotFound) ||
		errors.Is(err, ErrChoreNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrCompletionNotFound)
}

// IsRetryable reports whether the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
