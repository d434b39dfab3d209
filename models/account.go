package models

import (
	"time"
)

// Account tracks a user's off-chain RCF token balance.
// Balance is stored in integer base units and is never negative.
type Account struct {
	UserID    int64     `db:"user_id" json:"userId"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
