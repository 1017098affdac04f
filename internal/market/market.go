// Package market implements the coin-spending side of the reward loop: a
// catalog of redeemable items and a purchase flow with supervisor
// validation. Purchases snapshot item and user details so later catalog
// edits never rewrite receipts.
package market

import (
	"time"
)

// PurchaseStatus tracks a purchase through validation.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseValidated PurchaseStatus = "VALIDATED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePending, PurchaseValidated, PurchaseCancelled:
		return true
	default:
		return false
	}
}

// Item is one catalog entry.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cost        int    `json:"cost"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	Active      bool   `json:"active"`
}

// Purchase is a receipt. User and item fields are snapshots taken at
// purchase time.
type Purchase struct {
	ID        string         `json:"id"`
	ItemID    string         `json:"item_id"`
	UserID    string         `json:"user_id"`
	UserName  string         `json:"user_name"`
	ItemName  string         `json:"item_name"`
	ItemCost  int            `json:"item_cost"`
	Timestamp time.Time      `json:"timestamp"`
	Status    PurchaseStatus `json:"status"`
}
