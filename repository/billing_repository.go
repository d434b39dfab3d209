package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"
)

// BillingRepository implements billing transaction data access
type BillingRepository struct {
	q queryable
}

// NewBillingRepository creates a new billing repository
func NewBillingRepository(db *database.DB) *BillingRepository {
	return &BillingRepository{q: db.Pool}
}

// newBillingRepositoryWithTx creates a new billing repository bound to a transaction
func newBillingRepositoryWithTx(tx queryable) *BillingRepository {
	return &BillingRepository{q: tx}
}

// Record appends a billing transaction
func (r *BillingRepository) Record(ctx context.Context, tx *models.BillingTransaction) error {
	query := `
		INSERT INTO billing_transactions (user_id, amount, tx_type, status, description, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.TxType,
		tx.Status,
		tx.Description,
		tx.CompletedAt,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record billing transaction for user %d: %w", tx.UserID, err)
	}

	return nil
}
