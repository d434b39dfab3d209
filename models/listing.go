package models

import (
	"time"
)

// ListingStatus represents the state of a marketplace listing
type ListingStatus string

const (
	ListingStatusListed    ListingStatus = "listed"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCompleted ListingStatus = "completed"
)

// TradeKind distinguishes seller-initiated listings from direct shop buys
type TradeKind string

const (
	TradeKindSell TradeKind = "sell"
	TradeKindBuy  TradeKind = "buy"
)

// Listing is an offer to sell a car at a fixed price. It transitions to
// sold exactly once, atomically with the ownership transfer and payment.
type Listing struct {
	ID        int64         `db:"id" json:"id"`
	CarID     int64         `db:"car_id" json:"carId"`
	SellerID  int64         `db:"seller_id" json:"sellerId"`
	Price     int64         `db:"price" json:"price"`
	Currency  string        `db:"currency" json:"currency"`
	Status    ListingStatus `db:"status" json:"status"`
	Kind      TradeKind     `db:"tx_type" json:"kind"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// MarketEntry is the marketplace view of a car: the catalog row joined
// with its active listing, if any.
type MarketEntry struct {
	CarID        int64  `db:"car_id" json:"carId"`
	Name         string `db:"name" json:"name"`
	CurrentPrice int64  `db:"current_price" json:"currentPrice"`
	MarketStatus string `db:"market_status" json:"marketStatus"`
	ListingID    *int64 `db:"listing_id" json:"listingId,omitempty"`
	SellerID     *int64 `db:"seller_id" json:"sellerId,omitempty"`
}

// PurchaseResult represents a completed purchase (returned to the caller)
type PurchaseResult struct {
	CarID     int64  `json:"carId"`
	BuyerID   int64  `json:"buyerId"`
	SellerID  int64  `json:"sellerId"`
	Price     int64  `json:"price"`
	Signature string `json:"signature"`
}
