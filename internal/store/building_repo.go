package store

import (
	"context"
	"fmt"

	"github.com/talgya/guildgrid/internal/town"
)

type buildingRow struct {
	ID              string `db:"id"`
	OwnerID         string `db:"owner_id"`
	SquadID         string `db:"squad_id"`
	Type            string `db:"type"`
	Level           int    `db:"level"`
	PosX            int    `db:"pos_x"`
	PosZ            int    `db:"pos_z"`
	Placed          bool   `db:"placed"`
	ConcludedPoints int    `db:"concluded_points"`
}

func (r *buildingRow) toBuilding() *town.Building {
	return &town.Building{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		SquadID:         r.SquadID,
		Type:            town.BuildingType(r.Type),
		Level:           r.Level,
		Pos:             town.Position{X: r.PosX, Z: r.PosZ},
		Placed:          r.Placed,
		ConcludedPoints: r.ConcludedPoints,
	}
}

const buildingColumns = `id, owner_id, squad_id, type, level, pos_x, pos_z, placed, concluded_points`

// InsertBuilding writes a new building.
func InsertBuilding(ctx context.Context, q Querier, b *town.Building) error {
	_, err := q.ExecContext(ctx, `INSERT INTO buildings (`+buildingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.SquadID, string(b.Type), b.Level,
		b.Pos.X, b.Pos.Z, b.Placed, b.ConcludedPoints,
	)
	if err != nil {
		return fmt.Errorf("insert building %s: %w", b.ID, err)
	}
	return nil
}

// UpdateBuilding rewrites a building's mutable columns.
func UpdateBuilding(ctx context.Context, q Querier, b *town.Building) error {
	res, err := q.ExecContext(ctx, `UPDATE buildings SET
		owner_id = ?, squad_id = ?, type = ?, level = ?, pos_x = ?, pos_z = ?,
		placed = ?, concluded_points = ?
		WHERE id = ?`,
		b.OwnerID, b.SquadID, string(b.Type), b.Level, b.Pos.X, b.Pos.Z,
		b.Placed, b.ConcludedPoints, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update building %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update building %s: no such building", b.ID)
	}
	return nil
}

// AddConcludedPoints bumps the denormalized settled-point total.
func AddConcludedPoints(ctx context.Context, q Querier, buildingID string, delta int) error {
	_, err := q.ExecContext(ctx,
		"UPDATE buildings SET concluded_points = concluded_points + ? WHERE id = ?",
		delta, buildingID,
	)
	if err != nil {
		return fmt.Errorf("add concluded points to %s: %w", buildingID, err)
	}
	return nil
}

// GetBuilding loads a building by id; nil when absent.
func GetBuilding(ctx context.Context, q Querier, id string) (*town.Building, error) {
	var r buildingRow
	err := q.GetContext(ctx, &r, `SELECT `+buildingColumns+` FROM buildings WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get building %s: %w", id, err)
	}
	return r.toBuilding(), nil
}

func selectBuildings(ctx context.Context, q Querier, query string, args ...any) ([]*town.Building, error) {
	var rows []buildingRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select buildings: %w", err)
	}
	out := make([]*town.Building, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toBuilding())
	}
	return out, nil
}

// AllBuildings lists every building.
func AllBuildings(ctx context.Context, q Querier) ([]*town.Building, error) {
	return selectBuildings(ctx, q, `SELECT `+buildingColumns+` FROM buildings ORDER BY id`)
}

// BuildingsBySquad lists a squad's buildings.
func BuildingsBySquad(ctx context.Context, q Querier, squadID string) ([]*town.Building, error) {
	return selectBuildings(ctx, q,
		`SELECT `+buildingColumns+` FROM buildings WHERE squad_id = ? ORDER BY id`, squadID)
}

// DeleteBuilding removes a building (demolition). Its tasks must be removed
// or re-homed by the caller first.
func DeleteBuilding(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM buildings WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete building %s: %w", id, err)
	}
	return nil
}
