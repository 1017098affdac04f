package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/scoring"
	"github.com/talgya/guildgrid/internal/store"
)

func TestSettleCreditsEverything(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	task := newReviewTask(t, svc, b.ID, 5, 2) // base 10
	ctx := context.Background()

	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{
		Rating:   scoring.RatingBasic,
		Feedback: "solid delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.BasePoints)
	assert.Equal(t, 10, result.FinalPoints)
	assert.Equal(t, 100, result.FinalXP)
	assert.Equal(t, 10, result.FinalCoins)
	assert.Equal(t, board.StatusDone, result.Status)
	assert.False(t, result.RenewalPending)

	// The grade matches what the estimate promised.
	est, err := EstimatePoints(5, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, est.ByRating[scoring.RatingBasic].Points, result.FinalPoints)

	// Creator was credited.
	ana := getPlayer(t, svc, "u-ana")
	assert.Equal(t, 100, ana.CurrentXP)
	assert.Equal(t, 10, ana.TotalPoints)
	assert.Equal(t, 10, ana.Coins)
	assert.Equal(t, 1, ana.Streak)
	assert.InDelta(t, 3.0, ana.Reputation, 1e-9) // basic holds the neutral seed

	// Building absorbed the settled value.
	assert.Equal(t, 10, getBuilding(t, svc, b.ID).ConcludedPoints)

	// One durable history record.
	history, err := store.HistoryByTask(ctx, svc.store.DB(), task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10, history[0].Points)
	assert.Equal(t, 1, history[0].Sprint)
	assert.Equal(t, []string{"u-ana"}, history[0].Participants)

	// The task carries its outcome while DONE.
	stored := getTask(t, svc, task.ID)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, "solid delivery", stored.Outcome.Feedback)
	assert.True(t, stored.Terminal())
}

func TestSettleRequiresReview(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "not ready",
		Size: 3, Complexity: 1, Rule: board.RuleIntegrated,
	})
	require.NoError(t, err)

	_, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	// Nothing moved.
	assert.Equal(t, 0, getBuilding(t, svc, b.ID).ConcludedPoints)
	assert.Equal(t, 0, getPlayer(t, svc, "u-ana").TotalPoints)
}

func TestSettleTwiceFails(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	task := newReviewTask(t, svc, b.ID, 5, 2)
	ctx := context.Background()

	_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)

	_, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	// A finished task cannot be dragged back into play either.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusDoing)
	require.ErrorAs(t, err, &stateErr)
}

func TestSettleRejectsInvalidRating(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	task := newReviewTask(t, svc, b.ID, 5, 2)

	_, err := svc.Settle(context.Background(), b.ID, task.ID, SettleInput{Rating: 4})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestSettleHarmfulRatingPaysNothing(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	// Build a streak first.
	first := newReviewTask(t, svc, b.ID, 5, 2)
	_, err := svc.Settle(ctx, b.ID, first.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)

	task := newReviewTask(t, svc, b.ID, 5, 2)
	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingHarmful})
	require.NoError(t, err)

	assert.Equal(t, 0, result.FinalPoints)
	assert.Equal(t, 0, result.FinalXP)

	ana := getPlayer(t, svc, "u-ana")
	assert.Equal(t, 10, ana.TotalPoints) // only the first settlement
	assert.Equal(t, 0, ana.Streak)       // harmful work breaks the streak
	assert.InDelta(t, 2.9, ana.Reputation, 1e-9)

	assert.Equal(t, 10, getBuilding(t, svc, b.ID).ConcludedPoints)
}

func TestSettleCapacityGate(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc) // level 1, capacity 100
	ctx := context.Background()

	// Two 42-point tasks fit (84 of 100).
	for i := 0; i < 2; i++ {
		task := newReviewTask(t, svc, b.ID, 21, 2)
		_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
		require.NoError(t, err)
	}
	assert.Equal(t, 84, getBuilding(t, svc, b.ID).ConcludedPoints)

	// The third would need 84+42 > 100.
	task := newReviewTask(t, svc, b.ID, 21, 2)
	_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 100, capErr.Capacity)
	assert.Equal(t, 84, capErr.Accrued)
	assert.Equal(t, 42, capErr.Attempted)

	// The rejected settlement changed nothing.
	assert.Equal(t, 84, getBuilding(t, svc, b.ID).ConcludedPoints)
	assert.Equal(t, board.StatusReview, getTask(t, svc, task.ID).Status)
}

func TestSettleIntegratedCreditsAllParticipantsInFull(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "pair work",
		Size: 5, Complexity: 2, Rule: board.RuleIntegrated,
		Participants: []string{"u-bruno"},
	})
	require.NoError(t, err)
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)

	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingOutstanding})
	require.NoError(t, err)

	// Each participant earns the full value.
	assert.Equal(t, 20, result.Rewards["u-ana"].Points)
	assert.Equal(t, 20, result.Rewards["u-bruno"].Points)
	assert.Equal(t, 20, getPlayer(t, svc, "u-ana").TotalPoints)
	assert.Equal(t, 20, getPlayer(t, svc, "u-bruno").TotalPoints)

	// The task itself settles once at full value, not once per head.
	assert.Equal(t, 20, result.FinalPoints)
	assert.Equal(t, 20, getBuilding(t, svc, b.ID).ConcludedPoints)
}

func TestSettleNegotiatedSplitsByDistribution(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "split work",
		Size: 5, Complexity: 2, Rule: board.RuleNegotiated,
		Participants: []string{"u-bruno"},
		Distribution: map[string]int{"u-ana": 6, "u-bruno": 4},
	})
	require.NoError(t, err)
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)

	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingRelevant})
	require.NoError(t, err)

	assert.Equal(t, 9, result.Rewards["u-ana"].Points) // floor(6 × 1.5)
	assert.Equal(t, 6, result.Rewards["u-bruno"].Points)
	assert.Equal(t, 15, result.FinalPoints) // sum of the credited shares
	assert.Equal(t, 15, getBuilding(t, svc, b.ID).ConcludedPoints)

	assert.Equal(t, 9, getPlayer(t, svc, "u-ana").TotalPoints)
	assert.Equal(t, 6, getPlayer(t, svc, "u-bruno").TotalPoints)
}

func TestNegotiatedReviewRequiresBalancedShares(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "unbalanced",
		Size: 5, Complexity: 2, Rule: board.RuleNegotiated,
		Participants: []string{"u-bruno"},
		Distribution: map[string]int{"u-ana": 6, "u-bruno": 3}, // sums to 9, base is 10
	})
	require.NoError(t, err)

	// Working on it is fine; review is the gate.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusDoing)
	require.NoError(t, err)

	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestFixedTaskCyclesUntilLimit(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "weekly chore",
		Size: 3, Complexity: 1, Rule: board.RuleFixed,
		QuantityLimit: 2,
	})
	require.NoError(t, err)

	// First cycle: settles and returns to BACKLOG.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)
	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)
	assert.Equal(t, board.StatusBacklog, result.Status)
	assert.False(t, result.RenewalPending)

	stored := getTask(t, svc, task.ID)
	assert.Equal(t, 1, stored.Recurrence.Count)
	assert.Nil(t, stored.Outcome) // each cycle starts clean

	// Second cycle exhausts the limit.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)
	result, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)
	assert.Equal(t, board.StatusDone, result.Status)
	assert.True(t, result.RenewalPending)

	// Pinned until the renewal decision.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusDoing)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	// Both cycles paid out.
	history, err := store.HistoryByTask(ctx, svc.store.DB(), task.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 6, getPlayer(t, svc, "u-ana").TotalPoints)
}

func TestRenewalAcceptResetsTheCycle(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task := exhaustedFixedTask(t, svc, b.ID)

	renewed, err := svc.ResolveRenewal(ctx, b.ID, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, board.StatusBacklog, renewed.Status)
	assert.False(t, renewed.RenewalPending)
	assert.Equal(t, 0, renewed.Recurrence.Count)
	assert.Nil(t, renewed.Outcome)

	// The decision is one-shot.
	_, err = svc.ResolveRenewal(ctx, b.ID, task.ID, true)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestRenewalDeclineIsTerminal(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task := exhaustedFixedTask(t, svc, b.ID)

	finished, err := svc.ResolveRenewal(ctx, b.ID, task.ID, false)
	require.NoError(t, err)
	assert.Equal(t, board.StatusDone, finished.Status)
	assert.True(t, finished.Terminal())

	// No path back to the board, so no second settlement ever.
	var stateErr *StateError
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusBacklog)
	require.ErrorAs(t, err, &stateErr)
	_, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.ErrorAs(t, err, &stateErr)
}

func TestFixedDeadlineRenewalExtendsAWeek(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(24 * time.Hour)
	freezeTime(svc, start)

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "daily report",
		Size: 1, Complexity: 1, Rule: board.RuleFixed,
		Deadline: deadline, Period: board.PeriodDaily,
	})
	require.NoError(t, err)

	// Before the deadline the task just cycles.
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)
	result, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)
	assert.Equal(t, board.StatusBacklog, result.Status)

	// Past the deadline the next settlement parks it for renewal.
	freezeTime(svc, deadline.Add(time.Hour))
	_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
	require.NoError(t, err)
	result, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)
	assert.True(t, result.RenewalPending)

	renewed, err := svc.ResolveRenewal(ctx, b.ID, task.ID, true)
	require.NoError(t, err)
	assert.True(t, renewed.Recurrence.Deadline.Equal(deadline.Add(7*24*time.Hour)),
		"deadline %v, want %v", renewed.Recurrence.Deadline, deadline.Add(7*24*time.Hour))
}

// exhaustedFixedTask drives a quantity-1 FIXED task to its renewal decision.
func exhaustedFixedTask(t *testing.T, svc *Service, buildingID string) *board.Task {
	t.Helper()
	ctx := context.Background()
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: buildingID, CreatorID: "u-ana", Content: "one-cycle chore",
		Size: 3, Complexity: 1, Rule: board.RuleFixed,
		QuantityLimit: 1,
	})
	require.NoError(t, err)
	_, err = svc.MoveTask(ctx, buildingID, task.ID, board.StatusReview)
	require.NoError(t, err)
	result, err := svc.Settle(ctx, buildingID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)
	require.True(t, result.RenewalPending)
	return getTask(t, svc, task.ID)
}

func TestMoveTaskCannotDragIntoDone(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "shortcut",
		Size: 3, Complexity: 1, Rule: board.RuleIntegrated,
	})
	require.NoError(t, err)

	_, err = svc.MoveTask(context.Background(), b.ID, task.ID, board.StatusDone)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestLevelUpOnLargeSettlement(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	// Upgrade the building far enough to hold a large task.
	bld := getBuilding(t, svc, b.ID)
	bld.Level = 6 // capacity 2000
	require.NoError(t, svc.store.WithTx(ctx, func(q store.Querier) error {
		return store.UpdateBuilding(ctx, q, bld)
	}))

	task := newReviewTask(t, svc, b.ID, 55, 3) // base 165
	_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)

	// 1650 XP clears level 1 (1000) with 650 into level 2.
	ana := getPlayer(t, svc, "u-ana")
	assert.Equal(t, 2, ana.Level)
	assert.Equal(t, 650, ana.CurrentXP)
	assert.Equal(t, 1500, ana.NextLevelXP)
}
