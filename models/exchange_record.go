package models

import (
	"time"
)

// ExchangeRecord is the immutable audit row written once per settled
// transfer: wager payouts, marketplace sales, shop purchases and direct
// token exchanges. Token carries the currency tag or trading pair.
type ExchangeRecord struct {
	ID        int64     `db:"id" json:"id"`
	FromID    int64     `db:"from_id" json:"fromId"`
	ToID      int64     `db:"to_id" json:"toId"`
	Token     string    `db:"token" json:"token"`
	Amount    int64     `db:"amount" json:"amount"`
	Signature string    `db:"signature" json:"signature"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NFTRecord is the audit row for a direct asset transfer outside the
// marketplace.
type NFTRecord struct {
	ID        int64     `db:"id" json:"id"`
	FromID    int64     `db:"from_id" json:"fromId"`
	ToID      int64     `db:"to_id" json:"toId"`
	CarID     int64     `db:"car_id" json:"carId"`
	Signature string    `db:"signature" json:"signature"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BillingStatus represents the state of a billing transaction
type BillingStatus string

const (
	BillingStatusCompleted BillingStatus = "completed"
)

// BillingType categorizes billing transactions
type BillingType string

const (
	BillingTypeCarPurchase BillingType = "CAR_PURCHASE"
)

// BillingTransaction is the invoicing row written for shop purchases
type BillingTransaction struct {
	ID          int64         `db:"id"`
	UserID      int64         `db:"user_id"`
	Amount      int64         `db:"amount"`
	TxType      BillingType   `db:"tx_type"`
	Status      BillingStatus `db:"status"`
	Description string        `db:"description"`
	CreatedAt   time.Time     `db:"created_at"`
	CompletedAt *time.Time    `db:"completed_at"`
}
