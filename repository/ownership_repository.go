package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// OwnershipRepository implements car ownership data access
type OwnershipRepository struct {
	q queryable
}

// NewOwnershipRepository creates a new ownership repository
func NewOwnershipRepository(db *database.DB) *OwnershipRepository {
	return &OwnershipRepository{q: db.Pool}
}

// newOwnershipRepositoryWithTx creates a new ownership repository bound to a transaction
func newOwnershipRepositoryWithTx(tx queryable) *OwnershipRepository {
	return &OwnershipRepository{q: tx}
}

// Get retrieves the ownership row for an owner/car pair
func (r *OwnershipRepository) Get(ctx context.Context, ownerID, carID int64) (*models.CarOwnership, error) {
	query := `
		SELECT owner_id, car_id, quantity
		FROM car_ownership
		WHERE owner_id = $1 AND car_id = $2
	`

	var ownership models.CarOwnership
	err := r.q.QueryRow(ctx, query, ownerID, carID).Scan(
		&ownership.OwnerID,
		&ownership.CarID,
		&ownership.Quantity,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership of car %d for user %d: %w", carID, ownerID, err)
	}

	return &ownership, nil
}

// Grant adds quantity of a car to an owner, creating the row if needed
func (r *OwnershipRepository) Grant(ctx context.Context, ownerID, carID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("grant quantity must be positive: %w", models.ErrInvalidArgument)
	}

	query := `
		INSERT INTO car_ownership (owner_id, car_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, car_id)
		DO UPDATE SET quantity = car_ownership.quantity + EXCLUDED.quantity
	`

	if _, err := r.q.Exec(ctx, query, ownerID, carID, quantity); err != nil {
		return fmt.Errorf("failed to grant car %d to user %d: %w", carID, ownerID, err)
	}

	return nil
}

// Transfer moves one unit of a car from one owner to another. The quantity
// predicate on the decrement guards against double-spending the same unit
// under concurrent transfers.
func (r *OwnershipRepository) Transfer(ctx context.Context, fromID, toID, carID int64) error {
	decrement := `
		UPDATE car_ownership
		SET quantity = quantity - 1
		WHERE owner_id = $1 AND car_id = $2 AND quantity >= 1
	`

	result, err := r.q.Exec(ctx, decrement, fromID, carID)
	if err != nil {
		return fmt.Errorf("failed to release car %d from user %d: %w", carID, fromID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d does not own car %d: %w", fromID, carID, models.ErrNotFound)
	}

	// Drop emptied rows so ownership listings stay clean
	cleanup := `
		DELETE FROM car_ownership
		WHERE owner_id = $1 AND car_id = $2 AND quantity = 0
	`
	if _, err := r.q.Exec(ctx, cleanup, fromID, carID); err != nil {
		return fmt.Errorf("failed to clean up ownership row: %w", err)
	}

	if err := r.Grant(ctx, toID, carID, 1); err != nil {
		return err
	}

	return nil
}
