// Package engine is the settlement core: it owns the task lifecycle rules
// that the board and store packages deliberately do not enforce. Grading,
// renewal, capacity gating, and reward crediting all happen here, inside
// single transactions, so the town state can never half-apply a settlement.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/guildgrid/internal/progression"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/store"
	"github.com/talgya/guildgrid/internal/town"
)

// Service wires the domain rules to the store. All methods are safe for
// concurrent use; mutations run inside store transactions.
type Service struct {
	store  *store.Store
	log    *slog.Logger
	ground []town.Ground

	// now is stubbed in tests that exercise deadline-based recurrence.
	now func() time.Time
}

// New creates a Service over an open store. The terrain seed fixes the
// decorative ground map; the same seed always renders the same town.
func New(st *store.Store, log *slog.Logger, terrainSeed int64) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  st,
		log:    log,
		ground: town.GenerateGround(terrainSeed),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SeedRoster loads squads and players from a roster seed into the store.
// Identity fields are refreshed on every boot; progression state of players
// already present is preserved.
func (s *Service) SeedRoster(ctx context.Context, seed *roster.Seed) error {
	return s.store.WithTx(ctx, func(q store.Querier) error {
		for i := range seed.Squads {
			if err := store.UpsertSquad(ctx, q, &seed.Squads[i]); err != nil {
				return err
			}
		}
		for i := range seed.Players {
			p := seed.Players[i]
			if p.Level == 0 {
				p.Level = 1
				p.NextLevelXP = progression.PlayerThreshold(1)
				p.Reputation = progression.ReputationSeed
			}
			if err := store.UpsertPlayer(ctx, q, &p); err != nil {
				return err
			}
		}
		s.log.Info("roster seeded", "squads", len(seed.Squads), "players", len(seed.Players))
		return nil
	})
}
