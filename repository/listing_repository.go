package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// ListingRepository implements marketplace listing data access
type ListingRepository struct {
	q queryable
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *database.DB) *ListingRepository {
	return &ListingRepository{q: db.Pool}
}

// newListingRepositoryWithTx creates a new listing repository bound to a transaction
func newListingRepositoryWithTx(tx queryable) *ListingRepository {
	return &ListingRepository{q: tx}
}

// Create creates a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (car_id, seller_id, price, currency, status, tx_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		listing.CarID,
		listing.SellerID,
		listing.Price,
		listing.Currency,
		listing.Status,
		listing.Kind,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create listing for car %d: %w", listing.CarID, err)
	}

	return nil
}

// GetByID retrieves a listing by its ID
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	query := `
		SELECT id, car_id, seller_id, price, currency, status, tx_type, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	var listing models.Listing
	err := r.q.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.CarID,
		&listing.SellerID,
		&listing.Price,
		&listing.Currency,
		&listing.Status,
		&listing.Kind,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}

	return &listing, nil
}

// HasActiveForCar reports whether the car has a listed or pending listing
func (r *ListingRepository) HasActiveForCar(ctx context.Context, carID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM listings
			WHERE car_id = $1 AND status IN ('listed', 'pending')
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, carID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active listings for car %d: %w", carID, err)
	}

	return exists, nil
}

// MarkSold flips a listing from listed to sold. The status predicate is the
// exclusivity gate: of two concurrent buyers, exactly one update succeeds.
func (r *ListingRepository) MarkSold(ctx context.Context, listingID int64) error {
	query := `
		UPDATE listings
		SET status = 'sold', updated_at = NOW()
		WHERE id = $1 AND status = 'listed'
	`

	result, err := r.q.Exec(ctx, query, listingID)
	if err != nil {
		return fmt.Errorf("failed to mark listing %d sold: %w", listingID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("listed listing %d: %w", listingID, models.ErrNotFound)
	}

	return nil
}

// MarketEntries returns the marketplace view of the catalog: every car
// joined with its active listing, if any. Cars without a listing show their
// canonical price.
func (r *ListingRepository) MarketEntries(ctx context.Context) ([]*models.MarketEntry, error) {
	query := `
		SELECT
			c.id,
			c.name,
			COALESCE(l.price, c.price) AS current_price,
			COALESCE(l.status, 'shop') AS market_status,
			l.id,
			l.seller_id
		FROM cars c
		LEFT JOIN listings l ON l.car_id = c.id AND l.status IN ('listed', 'pending')
		ORDER BY c.price ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get market entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.MarketEntry
	for rows.Next() {
		var entry models.MarketEntry
		err := rows.Scan(
			&entry.CarID,
			&entry.Name,
			&entry.CurrentPrice,
			&entry.MarketStatus,
			&entry.ListingID,
			&entry.SellerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market entries: %w", err)
	}

	return entries, nil
}
