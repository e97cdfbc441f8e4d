/*
ledger.go - Star balance and reward availability aggregation

PURPOSE:
  Folds the completion and redemption history into per-kid star totals and
  reward availability. Balance is always computed by replaying history -
  there is no stored counter that can drift out of sync.

INVARIANTS:
  - StarsForKid is the exact sum of StarsAwarded over approved completions
    for the kid. Removing a completion (undo) decreases the total by exactly
    that completion's StarsAwarded.
  - A one-off reward, once redeemed by a kid, never becomes available to
    that kid again, even if the recorded cost differs from the current one.

This component only reads. Mutation - recording a completion, a redemption,
or an undo - is the board package's job, and it calls back into these
functions to validate preconditions first.
*/
package engine

// =============================================================================
// STAR TOTALS
// =============================================================================

// StarsForKid sums StarsAwarded over all approved completions for the kid.
// Pending-approval completions are excluded: stars land when a parent
// approves, not when the kid taps done.
func StarsForKid(completions []Completion, kidID KidID) Stars {
	total := NewStars(0)
	for _, c := range completions {
		if c.KidID != kidID || c.PendingApproval {
			continue
		}
		total = total.Add(c.StarsAwarded)
	}
	return total
}

// StarsSpentForKid sums redemption costs for the kid.
func StarsSpentForKid(redemptions []RewardRedemption, kidID KidID) Stars {
	total := NewStars(0)
	for _, r := range redemptions {
		if r.KidID != kidID {
			continue
		}
		total = total.Add(r.Cost)
	}
	return total
}

// StarBalanceForKid is earned minus spent. Can go negative only if history
// was edited out from under a redemption; the engine reports what the
// document says.
func StarBalanceForKid(completions []Completion, redemptions []RewardRedemption, kidID KidID) Stars {
	return StarsForKid(completions, kidID).Sub(StarsSpentForKid(redemptions, kidID))
}

// =============================================================================
// REWARD AVAILABILITY
// =============================================================================

// RewardAvailableForKid reports whether the reward can currently be redeemed
// by the kid, ignoring cost. Cost sufficiency is a separate check (CanAfford)
// so the UI can render "not enough stars yet" distinctly from "gone".
func RewardAvailableForKid(reward Reward, kidID KidID, redemptions []RewardRedemption) bool {
	if reward.Archived || !reward.AppliesTo(kidID) {
		return false
	}
	if reward.Type == RewardPerpetual {
		return true
	}
	// One-off: available until the first redemption by this kid.
	for _, r := range redemptions {
		if r.RewardID == reward.ID && r.KidID == kidID {
			return false
		}
	}
	return true
}

// CanAfford reports whether a balance covers the reward's current cost.
func CanAfford(reward Reward, balance Stars) bool {
	return !balance.LessThan(reward.Cost)
}
