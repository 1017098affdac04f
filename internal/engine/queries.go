package engine

import (
	"context"

	"github.com/talgya/guildgrid/internal/market"
	"github.com/talgya/guildgrid/internal/roster"
	"github.com/talgya/guildgrid/internal/store"
)

// Authenticate performs the roster login lookup: case-insensitive name plus
// exact document number. Returns NotFoundError on a miss; the API reports
// it without distinguishing which half was wrong.
func (s *Service) Authenticate(ctx context.Context, name, document string) (*roster.Player, error) {
	players, err := store.AllPlayers(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	flat := make([]roster.Player, len(players))
	for i, p := range players {
		flat[i] = *p
	}
	p := roster.MatchCredentials(flat, name, document)
	if p == nil {
		return nil, &NotFoundError{Kind: "player", ID: name}
	}
	return p, nil
}

// Players lists every player profile.
func (s *Service) Players(ctx context.Context) ([]*roster.Player, error) {
	return store.AllPlayers(ctx, s.store.DB())
}

// Squads lists every squad.
func (s *Service) Squads(ctx context.Context) ([]*roster.Squad, error) {
	return store.AllSquads(ctx, s.store.DB())
}

// MarketItems lists the catalog.
func (s *Service) MarketItems(ctx context.Context, activeOnly bool) ([]*market.Item, error) {
	return store.AllItems(ctx, s.store.DB(), activeOnly)
}

// UpsertMarketItem creates or edits a catalog item.
func (s *Service) UpsertMarketItem(ctx context.Context, it *market.Item) error {
	return s.store.WithTx(ctx, func(q store.Querier) error {
		return store.UpsertItem(ctx, q, it)
	})
}

// Purchases lists receipts, optionally scoped to one user.
func (s *Service) Purchases(ctx context.Context, userID string) ([]*market.Purchase, error) {
	if userID != "" {
		return store.PurchasesByUser(ctx, s.store.DB(), userID)
	}
	return store.AllPurchases(ctx, s.store.DB())
}
