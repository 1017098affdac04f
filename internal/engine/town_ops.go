package engine

import (
	"context"
	"fmt"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/store"
	"github.com/talgya/guildgrid/internal/town"
)

// PlaceBuilding puts a new level-1 building on the grid. Organizational
// types are one-per-squad; the footprint must be in bounds and clear.
func (s *Service) PlaceBuilding(ctx context.Context, ownerID, squadID string, typ town.BuildingType, pos town.Position) (*town.Building, error) {
	if !typ.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown building type %q", typ)}
	}

	var building *town.Building
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		all, err := store.AllBuildings(ctx, q)
		if err != nil {
			return err
		}
		if typ.Organizational() {
			for _, b := range all {
				if b.SquadID == squadID && b.Type == typ {
					return &ValidationError{Reason: fmt.Sprintf("squad %s already has a %s building", squadID, typ)}
				}
			}
		}
		building = town.New(ownerID, squadID, typ, pos)
		if !town.AreaFree(all, pos, town.Footprint(building.Level, typ), "") {
			return &ValidationError{Reason: fmt.Sprintf("tiles at (%d, %d) are not free", pos.X, pos.Z)}
		}
		return store.InsertBuilding(ctx, q, building)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("building placed", "building", building.ID, "type", string(typ), "x", pos.X, "z", pos.Z)
	return building, nil
}

// MoveBuilding relocates a building to a free spot. Tasks ride along; only
// the grid position changes.
func (s *Service) MoveBuilding(ctx context.Context, buildingID string, pos town.Position) (*town.Building, error) {
	var building *town.Building
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		building, err = store.GetBuilding(ctx, q, buildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return &NotFoundError{Kind: "building", ID: buildingID}
		}
		all, err := store.AllBuildings(ctx, q)
		if err != nil {
			return err
		}
		if !town.AreaFree(all, pos, town.Footprint(building.Level, building.Type), building.ID) {
			return &ValidationError{Reason: fmt.Sprintf("tiles at (%d, %d) are not free", pos.X, pos.Z)}
		}
		building.Pos = pos
		return store.UpdateBuilding(ctx, q, building)
	})
	if err != nil {
		return nil, err
	}
	return building, nil
}

// UpgradeBuilding raises a building one level, paying coins from the
// owner's wallet. A level-up can grow the footprint, so the larger square
// must fit where the building stands.
func (s *Service) UpgradeBuilding(ctx context.Context, buildingID, payerID string) (*town.Building, error) {
	var building *town.Building
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		building, err = store.GetBuilding(ctx, q, buildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return &NotFoundError{Kind: "building", ID: buildingID}
		}
		payer, err := store.GetPlayer(ctx, q, payerID)
		if err != nil {
			return err
		}
		if payer == nil {
			return &NotFoundError{Kind: "player", ID: payerID}
		}

		cost := town.UpgradeCost(building.Level)
		if payer.Coins < cost {
			return &ValidationError{Reason: fmt.Sprintf("upgrade costs %d coins, wallet holds %d", cost, payer.Coins)}
		}

		nextLevel := building.Level + 1
		all, err := store.AllBuildings(ctx, q)
		if err != nil {
			return err
		}
		if !town.AreaFree(all, building.Pos, town.Footprint(nextLevel, building.Type), building.ID) {
			return &ValidationError{Reason: "no room for the larger footprint; move the building first"}
		}

		payer.Coins -= cost
		if err := store.UpdatePlayerProgress(ctx, q, payer); err != nil {
			return err
		}
		building.Level = nextLevel
		return store.UpdateBuilding(ctx, q, building)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("building upgraded", "building", building.ID, "level", building.Level)
	return building, nil
}

// DemolishBuilding removes a building. Refused while unsettled tasks remain
// inside, so no planned work silently disappears; settled history belongs
// to the tasks and dies with them.
func (s *Service) DemolishBuilding(ctx context.Context, buildingID string) error {
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		building, err := store.GetBuilding(ctx, q, buildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return &NotFoundError{Kind: "building", ID: buildingID}
		}
		tasks, err := store.TasksByBuilding(ctx, q, buildingID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.Status != board.StatusDone {
				return &ValidationError{Reason: fmt.Sprintf("building still holds %d unsettled task(s)", countOpen(tasks))}
			}
		}
		for _, t := range tasks {
			if err := store.DeleteTask(ctx, q, t.ID); err != nil {
				return err
			}
		}
		return store.DeleteBuilding(ctx, q, buildingID)
	})
	if err != nil {
		return err
	}
	s.log.Info("building demolished", "building", buildingID)
	return nil
}

func countOpen(tasks []*board.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status != board.StatusDone {
			n++
		}
	}
	return n
}
