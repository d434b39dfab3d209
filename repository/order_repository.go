package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/models"

	"github.com/jackc/pgx/v5"
)

// OrderRepository implements exchange order data access
type OrderRepository struct {
	q queryable
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// newOrderRepositoryWithTx creates a new order repository bound to a transaction
func newOrderRepositoryWithTx(tx queryable) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create creates a new open order
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (owner_id, side, kind, price, amount, filled, status, pair)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		order.OwnerID,
		order.Side,
		order.Kind,
		order.Price,
		order.Amount,
		order.Filled,
		order.Status,
		order.Pair,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `
		SELECT id, owner_id, side, kind, price, amount, filled, status, pair, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order models.Order
	err := r.q.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.OwnerID,
		&order.Side,
		&order.Kind,
		&order.Price,
		&order.Amount,
		&order.Filled,
		&order.Status,
		&order.Pair,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	return &order, nil
}

// Cancel sets an order's status to cancelled
func (r *OrderRepository) Cancel(ctx context.Context, orderID int64) error {
	query := `
		UPDATE orders
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}

	return nil
}

// OpenByPair returns the open orders for a pair in book order: buys with
// the best bid first, sells with the best ask first.
func (r *OrderRepository) OpenByPair(ctx context.Context, pair string) (*models.OrderBook, error) {
	buy, err := r.openBySide(ctx, pair, models.OrderSideBuy, "DESC")
	if err != nil {
		return nil, err
	}

	sell, err := r.openBySide(ctx, pair, models.OrderSideSell, "ASC")
	if err != nil {
		return nil, err
	}

	return &models.OrderBook{Buy: buy, Sell: sell}, nil
}

func (r *OrderRepository) openBySide(ctx context.Context, pair string, side models.OrderSide, direction string) ([]*models.Order, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, side, kind, price, amount, filled, status, pair, created_at, updated_at
		FROM orders
		WHERE pair = $1 AND side = $2 AND status = 'open'
		ORDER BY price %s NULLS LAST, created_at ASC
	`, direction)

	rows, err := r.q.Query(ctx, query, pair, side)
	if err != nil {
		return nil, fmt.Errorf("failed to get open %s orders for %s: %w", side, pair, err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.OwnerID,
			&order.Side,
			&order.Kind,
			&order.Price,
			&order.Amount,
			&order.Filled,
			&order.Status,
			&order.Pair,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}
