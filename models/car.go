package models

import (
	"time"
)

// ShopSellerID is the synthetic counterpart account for shop purchases.
// It only ever receives credits and holds no ledger balance.
const ShopSellerID int64 = -1

// Car represents a collectible race car from the catalog
type Car struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Price     int64          `db:"price" json:"price"`
	Specs     map[string]any `db:"specs" json:"specs,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// CarOwnership maps an owner to a car and a quantity. Quantity is 1 for
// unique marketplace cars but shop-issued duplicates can stack.
type CarOwnership struct {
	OwnerID  int64 `db:"owner_id"`
	CarID    int64 `db:"car_id"`
	Quantity int   `db:"quantity"`
}
