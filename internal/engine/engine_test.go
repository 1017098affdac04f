package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/store"
	"github.com/talgya/guildgrid/internal/town"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, logger, 1)
}

// seedTeam installs one squad with a supervisor and an executor.
func seedTeam(t *testing.T, svc *Service) {
	t.Helper()
	err := svc.SeedRoster(context.Background(), &roster.Seed{
		Squads: []roster.Squad{
			{ID: "sq-forge", Name: "Forge", Color: "#ff6b35"},
		},
		Players: []roster.Player{
			{ID: "u-ana", Name: "Ana", SquadID: "sq-forge", Role: roster.RoleMaster, Document: "12345"},
			{ID: "u-bruno", Name: "Bruno", SquadID: "sq-forge", Role: roster.RoleExecutor, Document: "67890"},
		},
	})
	require.NoError(t, err)
}

func placeProduct(t *testing.T, svc *Service) *town.Building {
	t.Helper()
	b, err := svc.PlaceBuilding(context.Background(), "u-ana", "sq-forge", town.TypeProduct, town.Position{X: 0, Z: 0})
	require.NoError(t, err)
	return b
}

// newReviewTask creates a task and drags it into REVIEW, ready to grade.
func newReviewTask(t *testing.T, svc *Service, buildingID string, size, complexity int) *board.Task {
	t.Helper()
	ctx := context.Background()
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		BuildingID: buildingID,
		CreatorID:  "u-ana",
		Content:    "test work",
		Size:       size,
		Complexity: complexity,
		Rule:       board.RuleIntegrated,
	})
	require.NoError(t, err)
	task, err = svc.MoveTask(ctx, buildingID, task.ID, board.StatusReview)
	require.NoError(t, err)
	return task
}

func getPlayer(t *testing.T, svc *Service, id string) *roster.Player {
	t.Helper()
	p, err := store.GetPlayer(context.Background(), svc.store.DB(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func getBuilding(t *testing.T, svc *Service, id string) *town.Building {
	t.Helper()
	b, err := store.GetBuilding(context.Background(), svc.store.DB(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func getTask(t *testing.T, svc *Service, id string) *board.Task {
	t.Helper()
	task, err := store.GetTask(context.Background(), svc.store.DB(), id)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

// freezeTime pins the service clock.
func freezeTime(svc *Service, at time.Time) {
	svc.now = func() time.Time { return at }
}
