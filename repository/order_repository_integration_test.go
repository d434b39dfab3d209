package repository

import (
	"context"
	"testing"

	"raceledger/models"
	"raceledger/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewOrderRepository(testDB.DB)

	createOrder := func(ownerID int64, side models.OrderSide, price *int64) *models.Order {
		order := &models.Order{
			OwnerID: ownerID,
			Side:    side,
			Kind:    models.OrderKindLimit,
			Price:   price,
			Amount:  10,
			Status:  models.OrderStatusOpen,
			Pair:    "RCF/USDT",
		}
		if price == nil {
			order.Kind = models.OrderKindMarket
		}
		require.NoError(t, repo.Create(ctx, order))
		return order
	}

	p := func(v int64) *int64 { return &v }

	lowBid := createOrder(100, models.OrderSideBuy, p(100))
	highBid := createOrder(200, models.OrderSideBuy, p(150))
	marketBid := createOrder(300, models.OrderSideBuy, nil)
	highAsk := createOrder(400, models.OrderSideSell, p(220))
	lowAsk := createOrder(500, models.OrderSideSell, p(180))

	t.Run("book orders buys best bid first, sells best ask first", func(t *testing.T) {
		book, err := repo.OpenByPair(ctx, "RCF/USDT")
		require.NoError(t, err)

		require.Len(t, book.Buy, 3)
		assert.Equal(t, highBid.ID, book.Buy[0].ID)
		assert.Equal(t, lowBid.ID, book.Buy[1].ID)
		// Priceless market orders sort after priced ones
		assert.Equal(t, marketBid.ID, book.Buy[2].ID)

		require.Len(t, book.Sell, 2)
		assert.Equal(t, lowAsk.ID, book.Sell[0].ID)
		assert.Equal(t, highAsk.ID, book.Sell[1].ID)
	})

	t.Run("other pairs are empty, not nil", func(t *testing.T) {
		book, err := repo.OpenByPair(ctx, "BTC/USDT")
		require.NoError(t, err)
		assert.NotNil(t, book.Buy)
		assert.NotNil(t, book.Sell)
		assert.Empty(t, book.Buy)
		assert.Empty(t, book.Sell)
	})

	t.Run("cancelled order leaves the book", func(t *testing.T) {
		require.NoError(t, repo.Cancel(ctx, highBid.ID))

		got, err := repo.GetByID(ctx, highBid.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, got.Status)

		book, err := repo.OpenByPair(ctx, "RCF/USDT")
		require.NoError(t, err)
		require.Len(t, book.Buy, 2)
		assert.Equal(t, lowBid.ID, book.Buy[0].ID)
	})

	t.Run("cancel missing order is not found", func(t *testing.T) {
		err := repo.Cancel(ctx, 99999)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
