package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/scoring"
)

func TestBuildingStats(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	// One settled task, one still open.
	settled := newReviewTask(t, svc, b.ID, 5, 2) // base 10
	_, err := svc.Settle(ctx, b.ID, settled.ID, SettleInput{Rating: scoring.RatingRelevant})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "open work",
		Size: 8, Complexity: 1, Rule: board.RuleIntegrated,
	})
	require.NoError(t, err)

	stats, err := svc.BuildingStats(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 100, stats.Capacity)
	assert.Equal(t, 8, stats.PlannedPoints)
	assert.Equal(t, 15, stats.ConcludedPoints) // floor(10 × 1.5)
	assert.Equal(t, 1, stats.OpenTasks)
}

func TestSquadStatsDerivedFromHistory(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task := newReviewTask(t, svc, b.ID, 5, 2)
	_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)

	stats, err := svc.SquadStats(ctx, "sq-forge")
	require.NoError(t, err)

	assert.Equal(t, 10, stats.ConcludedPoints)
	assert.Equal(t, 100, stats.TotalXP)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 100, stats.XPInLevel)
	assert.Equal(t, 2000, stats.NextLevelXP)
	assert.Equal(t, 1, stats.Buildings)
}

func TestSquadStatsCountFixedCycles(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "chore",
		Size: 3, Complexity: 1, Rule: board.RuleFixed,
		QuantityLimit: 3,
	})
	require.NoError(t, err)

	// Two settled cycles of 3 points each.
	for i := 0; i < 2; i++ {
		_, err = svc.MoveTask(ctx, b.ID, task.ID, board.StatusReview)
		require.NoError(t, err)
		_, err = svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
		require.NoError(t, err)
	}

	stats, err := svc.SquadStats(ctx, "sq-forge")
	require.NoError(t, err)

	// Both cycles count even though the task sits back in BACKLOG, where it
	// also counts as planned again.
	assert.Equal(t, 6, stats.ConcludedPoints)
	assert.Equal(t, 3, stats.PlannedPoints)
}

func TestPlayerStats(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: b.ID, CreatorID: "u-ana", Content: "split work",
		Size: 5, Complexity: 2, Rule: board.RuleNegotiated,
		Participants: []string{"u-bruno"},
		Distribution: map[string]int{"u-ana": 6, "u-bruno": 4},
	})
	require.NoError(t, err)

	ana, err := svc.PlayerStats(ctx, "u-ana")
	require.NoError(t, err)
	assert.Equal(t, 6, ana.PlannedPoints)
	assert.Equal(t, 3, ana.Stars) // neutral seed

	bruno, err := svc.PlayerStats(ctx, "u-bruno")
	require.NoError(t, err)
	assert.Equal(t, 4, bruno.PlannedPoints)

	_, err = svc.PlayerStats(ctx, "u-ghost")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestSnapshot(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	placeProduct(t, svc)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Buildings, 1)
	assert.Len(t, snap.Squads, 1)
	assert.Len(t, snap.Players, 2)
	assert.Len(t, snap.Ground, 400)
	assert.Equal(t, 1, snap.Sprint.Cycle)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	ctx := context.Background()

	p, err := svc.Authenticate(ctx, "ana", "12345")
	require.NoError(t, err)
	assert.Equal(t, "u-ana", p.ID)

	_, err = svc.Authenticate(ctx, "ana", "wrong")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestSeedRosterPreservesProgression(t *testing.T) {
	svc := newTestService(t)
	seedTeam(t, svc)
	b := placeProduct(t, svc)
	ctx := context.Background()

	task := newReviewTask(t, svc, b.ID, 5, 2)
	_, err := svc.Settle(ctx, b.ID, task.ID, SettleInput{Rating: scoring.RatingBasic})
	require.NoError(t, err)

	// Re-seeding (e.g. on reboot) must not wipe earned progress.
	seedTeam(t, svc)
	ana := getPlayer(t, svc, "u-ana")
	assert.Equal(t, 10, ana.TotalPoints)
	assert.Equal(t, 100, ana.CurrentXP)
}
