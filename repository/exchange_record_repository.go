package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"
)

// ExchangeRecordRepository implements settlement audit data access
type ExchangeRecordRepository struct {
	q queryable
}

// NewExchangeRecordRepository creates a new exchange record repository
func NewExchangeRecordRepository(db *database.DB) *ExchangeRecordRepository {
	return &ExchangeRecordRepository{q: db.Pool}
}

// newExchangeRecordRepositoryWithTx creates a new exchange record repository bound to a transaction
func newExchangeRecordRepositoryWithTx(tx queryable) *ExchangeRecordRepository {
	return &ExchangeRecordRepository{q: tx}
}

// Record appends an exchange record
func (r *ExchangeRecordRepository) Record(ctx context.Context, record *models.ExchangeRecord) error {
	query := `
		INSERT INTO exchange_records (from_id, to_id, token, amount, signature)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.FromID,
		record.ToID,
		record.Token,
		record.Amount,
		record.Signature,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record exchange from %d to %d: %w", record.FromID, record.ToID, err)
	}

	return nil
}

// RecordNFT appends a direct asset transfer record
func (r *ExchangeRecordRepository) RecordNFT(ctx context.Context, record *models.NFTRecord) error {
	query := `
		INSERT INTO nft_records (from_id, to_id, car_id, signature)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.FromID,
		record.ToID,
		record.CarID,
		record.Signature,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record NFT transfer of car %d: %w", record.CarID, err)
	}

	return nil
}

// RecentByToken returns the most recent records for a token/pair
func (r *ExchangeRecordRepository) RecentByToken(ctx context.Context, token string, limit int) ([]*models.ExchangeRecord, error) {
	query := `
		SELECT id, from_id, to_id, token, amount, signature, created_at
		FROM exchange_records
		WHERE token = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, token, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent records for %s: %w", token, err)
	}
	defer rows.Close()

	records := make([]*models.ExchangeRecord, 0)
	for rows.Next() {
		var record models.ExchangeRecord
		err := rows.Scan(
			&record.ID,
			&record.FromID,
			&record.ToID,
			&record.Token,
			&record.Amount,
			&record.Signature,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange records: %w", err)
	}

	return records, nil
}
