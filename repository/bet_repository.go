package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements bet data access
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository bound to a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create creates a new pending bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (player1_id, player2_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.Player1ID,
		bet.Player2ID,
		bet.Amount,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `
		SELECT id, player1_id, player2_id, amount, status, winner_id, created_at, resolved_at
		FROM bets
		WHERE id = $1
	`

	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// FindPendingByPair locks and returns the pending bet between the unordered
// user pair. The row lock serializes concurrent resolution attempts so that
// only the first sees the bet still pending.
func (r *BetRepository) FindPendingByPair(ctx context.Context, userID, rivalID int64) (*models.Bet, error) {
	query := `
		SELECT id, player1_id, player2_id, amount, status, winner_id, created_at, resolved_at
		FROM bets
		WHERE ((player1_id = $1 AND player2_id = $2) OR (player1_id = $2 AND player2_id = $1))
		  AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	return r.scanOne(r.q.QueryRow(ctx, query, userID, rivalID))
}

// FindLatestPending locks and returns the most recently created pending bet
func (r *BetRepository) FindLatestPending(ctx context.Context) (*models.Bet, error) {
	query := `
		SELECT id, player1_id, player2_id, amount, status, winner_id, created_at, resolved_at
		FROM bets
		WHERE status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	return r.scanOne(r.q.QueryRow(ctx, query))
}

// MarkResolved flips a bet from pending to resolved and records the winner.
// The status predicate makes the flip a compare-and-swap: a second resolver
// finds zero rows and fails instead of double-paying.
func (r *BetRepository) MarkResolved(ctx context.Context, betID, winnerID int64) error {
	query := `
		UPDATE bets
		SET status = 'resolved', winner_id = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, winnerID, betID)
	if err != nil {
		return fmt.Errorf("failed to resolve bet %d: %w", betID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending bet %d: %w", betID, models.ErrNotFound)
	}

	return nil
}

func (r *BetRepository) scanOne(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.Player1ID,
		&bet.Player2ID,
		&bet.Amount,
		&bet.Status,
		&bet.WinnerID,
		&bet.CreatedAt,
		&bet.ResolvedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bet: %w", err)
	}

	return &bet, nil
}
