package store

import (
	"context"
	"fmt"

	"github.com/talgya/guildgrid/internal/roster"
)

type playerRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	SquadID     string  `db:"squad_id"`
	Role        string  `db:"role"`
	Document    *string `db:"document"`
	Level       int     `db:"level"`
	CurrentXP   int     `db:"current_xp"`
	NextLevelXP int     `db:"next_level_xp"`
	TotalPoints int     `db:"total_points"`
	Coins       int     `db:"coins"`
	Reputation  float64 `db:"reputation"`
	Streak      int     `db:"streak"`
}

func (r *playerRow) toPlayer() *roster.Player {
	p := &roster.Player{
		ID:          r.ID,
		Name:        r.Name,
		SquadID:     r.SquadID,
		Role:        roster.Role(r.Role),
		Level:       r.Level,
		CurrentXP:   r.CurrentXP,
		NextLevelXP: r.NextLevelXP,
		TotalPoints: r.TotalPoints,
		Coins:       r.Coins,
		Reputation:  r.Reputation,
		Streak:      r.Streak,
	}
	if r.Document != nil {
		p.Document = *r.Document
	}
	return p
}

const playerColumns = `id, name, squad_id, role, document, level, current_xp,
	next_level_xp, total_points, coins, reputation, streak`

// UpsertPlayer inserts a player, or refreshes identity fields on conflict
// (progression state is preserved when re-seeding).
func UpsertPlayer(ctx context.Context, q Querier, p *roster.Player) error {
	var document *string
	if p.Document != "" {
		document = &p.Document
	}
	_, err := q.ExecContext(ctx, `INSERT INTO players (`+playerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, squad_id = excluded.squad_id,
			role = excluded.role, document = excluded.document`,
		p.ID, p.Name, p.SquadID, string(p.Role), document,
		p.Level, p.CurrentXP, p.NextLevelXP, p.TotalPoints,
		p.Coins, p.Reputation, p.Streak,
	)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePlayerProgress rewrites a player's progression state.
func UpdatePlayerProgress(ctx context.Context, q Querier, p *roster.Player) error {
	res, err := q.ExecContext(ctx, `UPDATE players SET
		level = ?, current_xp = ?, next_level_xp = ?, total_points = ?,
		coins = ?, reputation = ?, streak = ?
		WHERE id = ?`,
		p.Level, p.CurrentXP, p.NextLevelXP, p.TotalPoints,
		p.Coins, p.Reputation, p.Streak, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update player %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update player %s: no such player", p.ID)
	}
	return nil
}

// GetPlayer loads a player by id; nil when absent.
func GetPlayer(ctx context.Context, q Querier, id string) (*roster.Player, error) {
	var r playerRow
	err := q.GetContext(ctx, &r, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return r.toPlayer(), nil
}

// AllPlayers lists every player.
func AllPlayers(ctx context.Context, q Querier) ([]*roster.Player, error) {
	var rows []playerRow
	if err := q.SelectContext(ctx, &rows, `SELECT `+playerColumns+` FROM players ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out := make([]*roster.Player, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toPlayer())
	}
	return out, nil
}

type squadRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Color       string  `db:"color"`
	Description *string `db:"description"`
}

// UpsertSquad inserts or refreshes a squad.
func UpsertSquad(ctx context.Context, q Querier, s *roster.Squad) error {
	var description *string
	if s.Description != "" {
		description = &s.Description
	}
	_, err := q.ExecContext(ctx, `INSERT INTO squads (id, name, color, description)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, color = excluded.color, description = excluded.description`,
		s.ID, s.Name, s.Color, description,
	)
	if err != nil {
		return fmt.Errorf("upsert squad %s: %w", s.ID, err)
	}
	return nil
}

// GetSquad loads a squad by id; nil when absent.
func GetSquad(ctx context.Context, q Querier, id string) (*roster.Squad, error) {
	var r squadRow
	err := q.GetContext(ctx, &r, "SELECT id, name, color, description FROM squads WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get squad %s: %w", id, err)
	}
	s := &roster.Squad{ID: r.ID, Name: r.Name, Color: r.Color}
	if r.Description != nil {
		s.Description = *r.Description
	}
	return s, nil
}

// AllSquads lists every squad.
func AllSquads(ctx context.Context, q Querier) ([]*roster.Squad, error) {
	var rows []squadRow
	if err := q.SelectContext(ctx, &rows, "SELECT id, name, color, description FROM squads ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list squads: %w", err)
	}
	out := make([]*roster.Squad, 0, len(rows))
	for _, r := range rows {
		s := &roster.Squad{ID: r.ID, Name: r.Name, Color: r.Color}
		if r.Description != nil {
			s.Description = *r.Description
		}
		out = append(out, s)
	}
	return out, nil
}
