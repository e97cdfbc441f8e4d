package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/starboard/chore-engine/engine"
)

func award(kidID engine.KidID, stars int, id string) engine.Completion {
	return engine.Completion{
		ID:           engine.CompletionID(id),
		ChoreID:      "ch-1",
		KidID:        kidID,
		Timestamp:    time.Now(),
		StarsAwarded: engine.NewStars(stars),
	}
}

func spend(kidID engine.KidID, rewardID engine.RewardID, cost int, id string) engine.RewardRedemption {
	return engine.RewardRedemption{
		ID:        engine.RedemptionID(id),
		RewardID:  rewardID,
		KidID:     kidID,
		Timestamp: time.Now(),
		Cost:      engine.NewStars(cost),
	}
}

// =============================================================================
// STAR TOTALS
// =============================================================================

func TestStarsForKid_SumsOnlyThatKid(t *testing.T) {
	// GIVEN: Completions for two kids
	// WHEN: Summing stars for kid A
	// THEN: Only kid A's awards count

	completions := []engine.Completion{
		award(kidA, 3, "c1"),
		award(kidB, 5, "c2"),
		award(kidA, 2, "c3"),
	}

	assert.True(t, engine.StarsForKid(completions, kidA).Equal(engine.NewStars(5)))
	assert.True(t, engine.StarsForKid(completions, kidB).Equal(engine.NewStars(5)))
	assert.True(t, engine.StarsForKid(nil, kidA).IsZero())
}

func TestStarsForKid_ExcludesPendingApproval(t *testing.T) {
	// GIVEN: One approved and one pending completion
	// WHEN: Summing stars
	// THEN: Only the approved one counts; approving releases the rest

	pending := award(kidA, 4, "c2")
	pending.PendingApproval = true
	completions := []engine.Completion{award(kidA, 3, "c1"), pending}

	assert.True(t, engine.StarsForKid(completions, kidA).Equal(engine.NewStars(3)))

	completions[1].PendingApproval = false
	assert.True(t, engine.StarsForKid(completions, kidA).Equal(engine.NewStars(7)))
}

func TestStarBalanceForKid_EarnedMinusSpent(t *testing.T) {
	completions := []engine.Completion{award(kidA, 10, "c1")}
	redemptions := []engine.RewardRedemption{spend(kidA, "rw-1", 4, "r1")}

	assert.True(t, engine.StarBalanceForKid(completions, redemptions, kidA).Equal(engine.NewStars(6)))
	assert.True(t, engine.StarBalanceForKid(completions, redemptions, kidB).IsZero())
}

func TestStarBalance_UndoDropsExactAward(t *testing.T) {
	// GIVEN: Two completions for a kid
	// WHEN: Removing one (undo is removal, not a compensating entry)
	// THEN: The total drops by exactly that completion's award

	doc := &engine.Document{
		Completions: []engine.Completion{award(kidA, 3, "c1"), award(kidA, 2, "c2")},
	}
	assert.True(t, engine.StarsForKid(doc.Completions, kidA).Equal(engine.NewStars(5)))

	assert.True(t, doc.RemoveCompletion("c1"))
	assert.True(t, engine.StarsForKid(doc.Completions, kidA).Equal(engine.NewStars(2)))

	assert.False(t, doc.RemoveCompletion("c1"), "second removal finds nothing")
}

// =============================================================================
// REWARD AVAILABILITY
// =============================================================================

func TestRewardAvailableForKid_OneOffGoneAfterRedemption(t *testing.T) {
	// GIVEN: A one-off reward redeemed by kid A
	// WHEN: Checking availability for both kids
	// THEN: Gone for A, still available for B

	reward := engine.Reward{
		ID:     "rw-1",
		KidIDs: []engine.KidID{kidA, kidB},
		Title:  "Movie night",
		Cost:   engine.NewStars(10),
		Type:   engine.RewardOneOff,
	}
	redemptions := []engine.RewardRedemption{spend(kidA, "rw-1", 10, "r1")}

	assert.False(t, engine.RewardAvailableForKid(reward, kidA, redemptions))
	assert.True(t, engine.RewardAvailableForKid(reward, kidB, redemptions))
}

func TestRewardAvailableForKid_PerpetualAlwaysAvailable(t *testing.T) {
	reward := engine.Reward{
		ID:     "rw-1",
		KidIDs: []engine.KidID{kidA},
		Title:  "Extra screen time",
		Cost:   engine.NewStars(3),
		Type:   engine.RewardPerpetual,
	}
	redemptions := []engine.RewardRedemption{
		spend(kidA, "rw-1", 3, "r1"),
		spend(kidA, "rw-1", 3, "r2"),
	}

	assert.True(t, engine.RewardAvailableForKid(reward, kidA, redemptions))
}

func TestRewardAvailableForKid_ArchivedAndUnassigned(t *testing.T) {
	reward := engine.Reward{
		ID:     "rw-1",
		KidIDs: []engine.KidID{kidA},
		Type:   engine.RewardPerpetual,
	}

	assert.False(t, engine.RewardAvailableForKid(reward, kidB, nil), "not assigned")

	reward.Archived = true
	assert.False(t, engine.RewardAvailableForKid(reward, kidA, nil), "archived")
}

func TestCanAfford_ExactBalanceSuffices(t *testing.T) {
	reward := engine.Reward{Cost: engine.NewStars(5)}

	assert.True(t, engine.CanAfford(reward, engine.NewStars(5)))
	assert.True(t, engine.CanAfford(reward, engine.NewStars(6)))
	assert.False(t, engine.CanAfford(reward, engine.NewStars(4)))
}

func TestRedemptionCost_CapturedNotCurrent(t *testing.T) {
	// GIVEN: A redemption recorded at cost 4, reward later repriced to 6
	// WHEN: Summing spent stars
	// THEN: The captured cost counts, not the current price

	redemptions := []engine.RewardRedemption{spend(kidA, "rw-1", 4, "r1")}

	assert.True(t, engine.StarsSpentForKid(redemptions, kidA).Equal(engine.NewStars(4)))
}
