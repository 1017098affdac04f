package engine

import (
	"context"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/progression"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/store"
	"github.com/talgya/guildgrid/internal/town"
)

// BuildingStats is the per-building point roll-up backing the capacity bar.
type BuildingStats struct {
	BuildingID      string `json:"building_id"`
	Level           int    `json:"level"`
	Capacity        int    `json:"capacity"`
	PlannedPoints   int    `json:"planned_points"`
	ConcludedPoints int    `json:"concluded_points"`
	OpenTasks       int    `json:"open_tasks"`
}

// SquadStats is the squad roll-up across all of its buildings.
type SquadStats struct {
	SquadID         string `json:"squad_id"`
	Level           int    `json:"level"`
	XPInLevel       int    `json:"xp_in_level"`
	NextLevelXP     int    `json:"next_level_xp"`
	TotalXP         int    `json:"total_xp"`
	PlannedPoints   int    `json:"planned_points"`
	ConcludedPoints int    `json:"concluded_points"`
	Buildings       int    `json:"buildings"`
}

// PlayerStats is a player profile plus the fields derived from it.
type PlayerStats struct {
	Player        *roster.Player `json:"player"`
	Stars         int            `json:"stars"`
	PlannedPoints int            `json:"planned_points"`
}

// BuildingStats computes the roll-up for one building. Planned counts the
// base value of every unsettled task; concluded reads the settled-point
// total maintained by grading.
func (s *Service) BuildingStats(ctx context.Context, buildingID string) (*BuildingStats, error) {
	building, err := store.GetBuilding(ctx, s.store.DB(), buildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, &NotFoundError{Kind: "building", ID: buildingID}
	}
	tasks, err := store.TasksByBuilding(ctx, s.store.DB(), buildingID)
	if err != nil {
		return nil, err
	}
	stats := &BuildingStats{
		BuildingID:      building.ID,
		Level:           building.Level,
		Capacity:        building.Capacity(),
		ConcludedPoints: building.ConcludedPoints,
	}
	for _, t := range tasks {
		if t.Status != board.StatusDone {
			stats.PlannedPoints += t.BasePoints()
			stats.OpenTasks++
		}
	}
	return stats, nil
}

// SquadStats rolls a squad up across every building it owns. Squad XP is
// never stored: it is the sum of the squad's settlement records, so the
// level cannot drift from the history that justifies it.
func (s *Service) SquadStats(ctx context.Context, squadID string) (*SquadStats, error) {
	squad, err := store.GetSquad(ctx, s.store.DB(), squadID)
	if err != nil {
		return nil, err
	}
	if squad == nil {
		return nil, &NotFoundError{Kind: "squad", ID: squadID}
	}
	tasks, err := store.TasksBySquad(ctx, s.store.DB(), squadID)
	if err != nil {
		return nil, err
	}
	buildings, err := store.BuildingsBySquad(ctx, s.store.DB(), squadID)
	if err != nil {
		return nil, err
	}

	stats := &SquadStats{SquadID: squadID, Buildings: len(buildings)}
	for _, t := range tasks {
		if t.Status != board.StatusDone {
			stats.PlannedPoints += t.BasePoints()
		}
		points, xp, err := store.HistoryTotals(ctx, s.store.DB(), t.ID)
		if err != nil {
			return nil, err
		}
		stats.ConcludedPoints += points
		stats.TotalXP += xp
	}
	stats.Level, stats.XPInLevel, stats.NextLevelXP = progression.SquadLevel(stats.TotalXP)
	return stats, nil
}

// PlayerStats returns a player's profile with their open workload. Concluded
// credit lives on the profile itself, written at settlement; planned points
// sum the player's share of every unsettled task they participate in.
func (s *Service) PlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	p, err := store.GetPlayer(ctx, s.store.DB(), playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "player", ID: playerID}
	}
	tasks, err := store.AllTasks(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	stats := &PlayerStats{Player: p, Stars: progression.Stars(p.Reputation)}
	for _, t := range tasks {
		if t.Status == board.StatusDone {
			continue
		}
		for _, id := range t.EffectiveParticipants() {
			if id == playerID {
				stats.PlannedPoints += t.BaseShare(playerID)
				break
			}
		}
	}
	return stats, nil
}

// TownSnapshot is everything the town view renders in one shot.
type TownSnapshot struct {
	Buildings []*town.Building `json:"buildings"`
	Squads    []*roster.Squad  `json:"squads"`
	Players   []*roster.Player `json:"players"`
	Ground    []town.Ground    `json:"ground"`
	Sprint    *Sprint          `json:"sprint"`
}

// Snapshot assembles the full town state.
func (s *Service) Snapshot(ctx context.Context) (*TownSnapshot, error) {
	buildings, err := store.AllBuildings(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	squads, err := store.AllSquads(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	players, err := store.AllPlayers(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	sprint, err := s.CurrentSprint(ctx)
	if err != nil {
		return nil, err
	}
	return &TownSnapshot{
		Buildings: buildings,
		Squads:    squads,
		Players:   players,
		Ground:    s.ground,
		Sprint:    sprint,
	}, nil
}
