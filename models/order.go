package models

import (
	"time"
)

// OrderSide is the direction of a standing order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderKind distinguishes limit from market orders
type OrderKind string

const (
	OrderKindLimit  OrderKind = "limit"
	OrderKindMarket OrderKind = "market"
)

// OrderStatus represents the state of an order. No process currently fills
// orders against each other, so filled is reachable only through the schema.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFilled    OrderStatus = "filled"
)

// Order is a standing intent to trade a fungible pair. Price is set only
// for limit orders. Filled is monotonically non-decreasing and never
// exceeds Amount.
type Order struct {
	ID        int64       `db:"id" json:"id"`
	OwnerID   int64       `db:"owner_id" json:"ownerId"`
	Side      OrderSide   `db:"side" json:"side"`
	Kind      OrderKind   `db:"kind" json:"kind"`
	Price     *int64      `db:"price" json:"price"`
	Amount    int64       `db:"amount" json:"amount"`
	Filled    int64       `db:"filled" json:"filled"`
	Status    OrderStatus `db:"status" json:"status"`
	Pair      string      `db:"pair" json:"pair"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// OrderBook is the read-only view of open orders for a pair: buys ordered
// best-bid first (price descending), sells best-ask first (price ascending).
type OrderBook struct {
	Buy  []*Order `json:"buy"`
	Sell []*Order `json:"sell"`
}
