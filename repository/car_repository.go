package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// CarRepository implements car catalog data access
type CarRepository struct {
	q queryable
}

// NewCarRepository creates a new car repository
func NewCarRepository(db *database.DB) *CarRepository {
	return &CarRepository{q: db.Pool}
}

// newCarRepositoryWithTx creates a new car repository bound to a transaction
func newCarRepositoryWithTx(tx queryable) *CarRepository {
	return &CarRepository{q: tx}
}

// GetByID retrieves a car by its ID
func (r *CarRepository) GetByID(ctx context.Context, id int64) (*models.Car, error) {
	query := `
		SELECT id, name, price, specs, created_at
		FROM cars
		WHERE id = $1
	`

	var car models.Car
	var specsJSON []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&car.ID,
		&car.Name,
		&car.Price,
		&specsJSON,
		&car.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car %d: %w", id, err)
	}

	if err := json.Unmarshal(specsJSON, &car.Specs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specs for car %d: %w", id, err)
	}

	return &car, nil
}

// GetAll returns the full car catalog ordered by price
func (r *CarRepository) GetAll(ctx context.Context) ([]*models.Car, error) {
	query := `
		SELECT id, name, price, specs, created_at
		FROM cars
		ORDER BY price ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get cars: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		var car models.Car
		var specsJSON []byte
		err := rows.Scan(
			&car.ID,
			&car.Name,
			&car.Price,
			&specsJSON,
			&car.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		if err := json.Unmarshal(specsJSON, &car.Specs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal car specs: %w", err)
		}
		cars = append(cars, &car)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cars: %w", err)
	}

	return cars, nil
}
