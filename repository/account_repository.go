package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements ledger account data access
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByUserID retrieves an account by its owner's user ID
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account for user %d: %w", userID, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, userID int64, initialBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, $2)
		RETURNING user_id, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID, initialBalance).Scan(
		&account.UserID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account for user %d: %w", userID, err)
	}

	return &account, nil
}

// Credit adds to an account's balance atomically
func (r *AccountRepository) Credit(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive: %w", models.ErrInvalidArgument)
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account for user %d: %w", userID, models.ErrNotFound)
	}

	return nil
}

// Debit removes from an account's balance atomically. The balance predicate
// in the UPDATE is the non-negativity guard: two concurrent debits cannot
// both pass it for the same funds.
func (r *AccountRepository) Debit(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive: %w", models.ErrInvalidArgument)
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing account from insufficient funds
		account, err := r.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check account %d: %w", userID, err)
		}
		if account == nil {
			return fmt.Errorf("account for user %d: %w", userID, models.ErrNotFound)
		}
		return fmt.Errorf("account %d has %d, needs %d: %w", userID, account.Balance, amount, models.ErrInsufficientFunds)
	}

	return nil
}
