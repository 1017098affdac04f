package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/guildgrid/internal/market"
	"github.com/talgya/guildgrid/internal/store"
)

// PurchaseItem spends a player's coins on a catalog item. The coin debit,
// the stock decrement, and the receipt are one transaction; the receipt
// starts PENDING until a supervisor validates the hand-over.
func (s *Service) PurchaseItem(ctx context.Context, playerID, itemID string) (*market.Purchase, error) {
	var purchase *market.Purchase
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		player, err := store.GetPlayer(ctx, q, playerID)
		if err != nil {
			return err
		}
		if player == nil {
			return &NotFoundError{Kind: "player", ID: playerID}
		}
		item, err := store.GetItem(ctx, q, itemID)
		if err != nil {
			return err
		}
		if item == nil || !item.Active {
			return &NotFoundError{Kind: "item", ID: itemID}
		}
		if item.Stock <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("%s is out of stock", item.Name)}
		}
		if player.Coins < item.Cost {
			return &ValidationError{Reason: fmt.Sprintf("%s costs %d coins, wallet holds %d",
				item.Name, item.Cost, player.Coins)}
		}

		player.Coins -= item.Cost
		if err := store.UpdatePlayerProgress(ctx, q, player); err != nil {
			return err
		}
		if err := store.AdjustStock(ctx, q, item.ID, -1); err != nil {
			return err
		}

		purchase = &market.Purchase{
			ID:        uuid.NewString(),
			ItemID:    item.ID,
			UserID:    player.ID,
			UserName:  player.Name,
			ItemName:  item.Name,
			ItemCost:  item.Cost,
			Timestamp: s.now(),
			Status:    market.PurchasePending,
		}
		return store.InsertPurchase(ctx, q, purchase)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("item purchased", "purchase", purchase.ID, "item", purchase.ItemName, "player", playerID)
	return purchase, nil
}

// ValidatePurchase marks a pending receipt as handed over.
func (s *Service) ValidatePurchase(ctx context.Context, purchaseID string) (*market.Purchase, error) {
	return s.resolvePurchase(ctx, purchaseID, market.PurchaseValidated)
}

// CancelPurchase voids a pending receipt, refunding the coins and
// returning the item to stock.
func (s *Service) CancelPurchase(ctx context.Context, purchaseID string) (*market.Purchase, error) {
	return s.resolvePurchase(ctx, purchaseID, market.PurchaseCancelled)
}

func (s *Service) resolvePurchase(ctx context.Context, purchaseID string, to market.PurchaseStatus) (*market.Purchase, error) {
	var purchase *market.Purchase
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		purchase, err = store.GetPurchase(ctx, q, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return &NotFoundError{Kind: "purchase", ID: purchaseID}
		}
		if purchase.Status != market.PurchasePending {
			return &ValidationError{Reason: fmt.Sprintf("purchase already %s", purchase.Status)}
		}

		if to == market.PurchaseCancelled {
			player, err := store.GetPlayer(ctx, q, purchase.UserID)
			if err != nil {
				return err
			}
			if player != nil {
				player.Coins += purchase.ItemCost
				if err := store.UpdatePlayerProgress(ctx, q, player); err != nil {
					return err
				}
			}
			if err := store.AdjustStock(ctx, q, purchase.ItemID, 1); err != nil {
				return err
			}
		}

		if err := store.UpdatePurchaseStatus(ctx, q, purchaseID, to); err != nil {
			return err
		}
		purchase.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("purchase resolved", "purchase", purchaseID, "status", string(purchase.Status))
	return purchase, nil
}
