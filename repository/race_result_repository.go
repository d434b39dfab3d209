package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"
)

// RaceResultRepository implements race result audit data access
type RaceResultRepository struct {
	q queryable
}

// NewRaceResultRepository creates a new race result repository
func NewRaceResultRepository(db *database.DB) *RaceResultRepository {
	return &RaceResultRepository{q: db.Pool}
}

// newRaceResultRepositoryWithTx creates a new race result repository bound to a transaction
func newRaceResultRepositoryWithTx(tx queryable) *RaceResultRepository {
	return &RaceResultRepository{q: tx}
}

// Record appends a race result row
func (r *RaceResultRepository) Record(ctx context.Context, result *models.RaceResult) error {
	query := `
		INSERT INTO race_results (user_id, rival_id, race_time, position, bet_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		result.UserID,
		result.RivalID,
		result.RaceTime,
		result.Position,
		result.BetID,
	).Scan(&result.ID, &result.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record race result for bet %d: %w", result.BetID, err)
	}

	return nil
}
