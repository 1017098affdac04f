package store

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/guildgrid/internal/market"
)

type itemRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Cost        int     `db:"cost"`
	Stock       int     `db:"stock"`
	Category    string  `db:"category"`
	Active      bool    `db:"active"`
}

func (r *itemRow) toItem() *market.Item {
	it := &market.Item{
		ID:       r.ID,
		Name:     r.Name,
		Cost:     r.Cost,
		Stock:    r.Stock,
		Category: r.Category,
		Active:   r.Active,
	}
	if r.Description != nil {
		it.Description = *r.Description
	}
	return it
}

// UpsertItem inserts or rewrites a catalog item.
func UpsertItem(ctx context.Context, q Querier, it *market.Item) error {
	var description *string
	if it.Description != "" {
		description = &it.Description
	}
	_, err := q.ExecContext(ctx, `INSERT INTO market_items
		(id, name, description, cost, stock, category, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, description = excluded.description,
			cost = excluded.cost, stock = excluded.stock,
			category = excluded.category, active = excluded.active`,
		it.ID, it.Name, description, it.Cost, it.Stock, it.Category, it.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", it.ID, err)
	}
	return nil
}

// GetItem loads a catalog item; nil when absent.
func GetItem(ctx context.Context, q Querier, id string) (*market.Item, error) {
	var r itemRow
	err := q.GetContext(ctx, &r,
		"SELECT id, name, description, cost, stock, category, active FROM market_items WHERE id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return r.toItem(), nil
}

// AllItems lists the catalog; activeOnly hides retired items.
func AllItems(ctx context.Context, q Querier, activeOnly bool) ([]*market.Item, error) {
	query := "SELECT id, name, description, cost, stock, category, active FROM market_items"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY category, name"

	var rows []itemRow
	if err := q.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]*market.Item, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toItem())
	}
	return out, nil
}

// AdjustStock bumps an item's stock by delta.
func AdjustStock(ctx context.Context, q Querier, itemID string, delta int) error {
	_, err := q.ExecContext(ctx,
		"UPDATE market_items SET stock = stock + ? WHERE id = ?", delta, itemID)
	if err != nil {
		return fmt.Errorf("adjust stock for %s: %w", itemID, err)
	}
	return nil
}

type purchaseRow struct {
	ID       string    `db:"id"`
	ItemID   string    `db:"item_id"`
	UserID   string    `db:"user_id"`
	UserName string    `db:"user_name"`
	ItemName string    `db:"item_name"`
	ItemCost int       `db:"item_cost"`
	TS       time.Time `db:"ts"`
	Status   string    `db:"status"`
}

func (r *purchaseRow) toPurchase() *market.Purchase {
	return &market.Purchase{
		ID:        r.ID,
		ItemID:    r.ItemID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		ItemName:  r.ItemName,
		ItemCost:  r.ItemCost,
		Timestamp: r.TS,
		Status:    market.PurchaseStatus(r.Status),
	}
}

const purchaseColumns = `id, item_id, user_id, user_name, item_name, item_cost, ts, status`

// InsertPurchase writes a new receipt.
func InsertPurchase(ctx context.Context, q Querier, p *market.Purchase) error {
	_, err := q.ExecContext(ctx, `INSERT INTO purchases
		(id, item_id, user_id, user_name, item_name, item_cost, ts, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ItemID, p.UserID, p.UserName, p.ItemName, p.ItemCost,
		p.Timestamp, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("insert purchase %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePurchaseStatus moves a receipt through validation.
func UpdatePurchaseStatus(ctx context.Context, q Querier, id string, status market.PurchaseStatus) error {
	res, err := q.ExecContext(ctx,
		"UPDATE purchases SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("update purchase %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update purchase %s: no such purchase", id)
	}
	return nil
}

// GetPurchase loads a receipt; nil when absent.
func GetPurchase(ctx context.Context, q Querier, id string) (*market.Purchase, error) {
	var r purchaseRow
	err := q.GetContext(ctx, &r, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase %s: %w", id, err)
	}
	return r.toPurchase(), nil
}

func selectPurchases(ctx context.Context, q Querier, query string, args ...any) ([]*market.Purchase, error) {
	var rows []purchaseRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	out := make([]*market.Purchase, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toPurchase())
	}
	return out, nil
}

// PurchasesByUser lists a user's receipts, newest first.
func PurchasesByUser(ctx context.Context, q Querier, userID string) ([]*market.Purchase, error) {
	return selectPurchases(ctx, q,
		`SELECT `+purchaseColumns+` FROM purchases WHERE user_id = ? ORDER BY ts DESC, id`, userID)
}

// AllPurchases lists every receipt, newest first.
func AllPurchases(ctx context.Context, q Querier) ([]*market.Purchase, error) {
	return selectPurchases(ctx, q,
		`SELECT `+purchaseColumns+` FROM purchases ORDER BY ts DESC, id`)
}
