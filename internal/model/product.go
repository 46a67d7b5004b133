package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `db:"id" json:"id"`
	BusinessID  string          `db:"business_id" json:"businessId"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Currency    string          `db:"currency" json:"currency"`
	Category    string          `db:"category" json:"category"`
	ImageURL    *string         `db:"image_url" json:"imageUrl,omitempty"`
	InStock     bool            `db:"in_stock" json:"inStock"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// ProductSnapshot is the subset of product data frozen into carts and
// order items at add-time. Prices are never re-read after the snapshot
// is taken, so cart totals stay stable if the catalog changes mid-session.
type ProductSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	ImageURL *string         `json:"imageUrl,omitempty"`
}

// Snapshot freezes the fields carts and orders care about.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Currency: p.Currency,
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
}
