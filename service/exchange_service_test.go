package service

import (
	"context"
	"testing"

	"raceledger/events"
	"raceledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockExchangeCache is a mock implementation of ExchangeCache
type MockExchangeCache struct {
	mock.Mock
}

func (m *MockExchangeCache) GetOrderBook(ctx context.Context, pair string) (*models.OrderBook, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderBook), args.Error(1)
}

func (m *MockExchangeCache) SetOrderBook(ctx context.Context, pair string, book *models.OrderBook) error {
	args := m.Called(ctx, pair, book)
	return args.Error(0)
}

func (m *MockExchangeCache) InvalidateOrderBook(ctx context.Context, pair string) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func TestExchangeService_CreateOrder_LimitBuy(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)
	mockUoW.SetEventBus(mockBus)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	price := int64(150)
	mockOrderRepo.On("Create", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.OwnerID == 100 &&
			o.Side == models.OrderSideBuy &&
			o.Kind == models.OrderKindLimit &&
			o.Price != nil && *o.Price == 150 &&
			o.Amount == 10 &&
			o.Status == models.OrderStatusOpen &&
			o.Pair == "RCF/USDT"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Order).ID = 4
	})

	mockBus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.OrderCreatedEvent)
		return ok && ev.OrderID == 4 && ev.Side == "buy" && ev.Pair == "RCF/USDT"
	})).Return()

	order, err := service.CreateOrder(ctx, 100, models.OrderSideBuy, models.OrderKindLimit, 10, "RCF/USDT", &price)

	assert.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, int64(4), order.ID)

	mockUoW.AssertExpectations(t)
	mockOrderRepo.AssertExpectations(t)
	mockBus.AssertExpectations(t)
}

func TestExchangeService_CreateOrder_MarketDropsPrice(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)
	mockUoW.SetEventBus(mockBus)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// A price sent with a market order is ignored
	stray := int64(999)
	mockOrderRepo.On("Create", ctx, mock.MatchedBy(func(o *models.Order) bool {
		return o.Kind == models.OrderKindMarket && o.Price == nil
	})).Return(nil)
	mockBus.On("Publish", mock.AnythingOfType("events.OrderCreatedEvent")).Return()

	order, err := service.CreateOrder(ctx, 100, models.OrderSideSell, models.OrderKindMarket, 10, "RCF/USDT", &stray)

	assert.NoError(t, err)
	assert.Nil(t, order.Price)
	mockOrderRepo.AssertExpectations(t)
}

func TestExchangeService_CreateOrder_Validation(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewExchangeService(mockFactory, nil)

	price := int64(150)

	cases := []struct {
		name   string
		side   models.OrderSide
		kind   models.OrderKind
		amount int64
		pair   string
		price  *int64
	}{
		{"bad side", "short", models.OrderKindLimit, 10, "RCF/USDT", &price},
		{"bad kind", models.OrderSideBuy, "stop", 10, "RCF/USDT", &price},
		{"zero amount", models.OrderSideBuy, models.OrderKindLimit, 0, "RCF/USDT", &price},
		{"empty pair", models.OrderSideBuy, models.OrderKindLimit, 10, "", &price},
		{"limit without price", models.OrderSideBuy, models.OrderKindLimit, 10, "RCF/USDT", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, err := service.CreateOrder(ctx, 100, tc.side, tc.kind, tc.amount, tc.pair, tc.price)
			assert.Nil(t, order)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}

	mockFactory.AssertNotCalled(t, "Create")
}

func TestExchangeService_OrderBook_CacheMiss(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)
	mockCache := new(MockExchangeCache)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)

	service := NewExchangeService(mockFactory, mockCache)

	book := &models.OrderBook{
		Buy:  []*models.Order{{ID: 1, Side: models.OrderSideBuy}},
		Sell: []*models.Order{},
	}

	mockCache.On("GetOrderBook", ctx, "RCF/USDT").Return(nil, models.ErrNotFound)
	mockCache.On("SetOrderBook", ctx, "RCF/USDT", book).Return(nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockOrderRepo.On("OpenByPair", ctx, "RCF/USDT").Return(book, nil)

	got, err := service.OrderBook(ctx, "RCF/USDT")

	assert.NoError(t, err)
	assert.Equal(t, book, got)
	mockCache.AssertExpectations(t)
	mockOrderRepo.AssertExpectations(t)
}

func TestExchangeService_OrderBook_CacheHit(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	mockCache := new(MockExchangeCache)

	service := NewExchangeService(mockFactory, mockCache)

	book := &models.OrderBook{Buy: []*models.Order{}, Sell: []*models.Order{}}
	mockCache.On("GetOrderBook", ctx, "RCF/USDT").Return(book, nil)

	got, err := service.OrderBook(ctx, "RCF/USDT")

	assert.NoError(t, err)
	assert.Equal(t, book, got)

	// A warm cache never opens a transaction
	mockFactory.AssertNotCalled(t, "Create")
}

func TestExchangeService_CancelOrder_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)
	mockUoW.SetEventBus(mockBus)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockOrderRepo.On("GetByID", ctx, int64(4)).Return(&models.Order{
		ID: 4, OwnerID: 100, Pair: "RCF/USDT", Status: models.OrderStatusOpen,
	}, nil)
	mockOrderRepo.On("Cancel", ctx, int64(4)).Return(nil)
	mockBus.On("Publish", mock.AnythingOfType("events.OrderCancelledEvent")).Return()

	order, err := service.CancelOrder(ctx, 100, 4)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	mockOrderRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestExchangeService_CancelOrder_Forbidden(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockOrderRepo.On("GetByID", ctx, int64(4)).Return(&models.Order{
		ID: 4, OwnerID: 999, Pair: "RCF/USDT", Status: models.OrderStatusOpen,
	}, nil)

	order, err := service.CancelOrder(ctx, 100, 4)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, models.ErrForbidden)
	mockOrderRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestExchangeService_CancelOrder_AlreadyCancelled(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOrderRepo := new(MockOrderRepository)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, mockOrderRepo, nil, nil)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockOrderRepo.On("GetByID", ctx, int64(4)).Return(&models.Order{
		ID: 4, OwnerID: 100, Pair: "RCF/USDT", Status: models.OrderStatusCancelled,
	}, nil)

	// Cancelling twice succeeds without touching the row again
	order, err := service.CancelOrder(ctx, 100, 4)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	mockOrderRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestExchangeService_RecentTrades_LimitClamping(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockExchangeRepo := new(MockExchangeRecordRepository)

	mockUoW.SetRepositories(nil, nil, nil, nil, nil, nil, nil, mockExchangeRepo, nil)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockExchangeRepo.On("RecentByToken", ctx, "RCF/USDT", defaultTradesLimit).Return([]*models.ExchangeRecord{}, nil)
	mockExchangeRepo.On("RecentByToken", ctx, "RCF/USDT", maxTradesLimit).Return([]*models.ExchangeRecord{}, nil)

	_, err := service.RecentTrades(ctx, "RCF/USDT", 0)
	assert.NoError(t, err)

	_, err = service.RecentTrades(ctx, "RCF/USDT", 5000)
	assert.NoError(t, err)

	mockExchangeRepo.AssertExpectations(t)
}

func TestExchangeService_TransferToken_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockExchangeRepo := new(MockExchangeRecordRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, nil, mockExchangeRepo, nil)
	mockUoW.SetEventBus(mockBus)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByUserID", ctx, int64(100)).Return(&models.Account{UserID: 100, Balance: 5000}, nil)
	mockAccountRepo.On("GetByUserID", ctx, int64(200)).Return(&models.Account{UserID: 200, Balance: 0}, nil)
	mockAccountRepo.On("Debit", ctx, int64(100), int64(1500)).Return(nil)
	mockAccountRepo.On("Credit", ctx, int64(200), int64(1500)).Return(nil)

	mockExchangeRepo.On("Record", ctx, mock.MatchedBy(func(r *models.ExchangeRecord) bool {
		return r.FromID == 100 && r.ToID == 200 && r.Token == "RCF" && r.Amount == 1500
	})).Return(nil)

	mockBus.On("Publish", mock.AnythingOfType("events.TokenTransferredEvent")).Return()

	record, err := service.TransferToken(ctx, 100, 200, "RCF", 1500)

	assert.NoError(t, err)
	assert.NotNil(t, record)
	assert.Len(t, record.Signature, 32)

	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockExchangeRepo.AssertExpectations(t)
}

func TestExchangeService_TransferToken_MissingReceiver(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, nil, nil, nil)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("GetByUserID", ctx, int64(100)).Return(&models.Account{UserID: 100, Balance: 5000}, nil)
	mockAccountRepo.On("GetByUserID", ctx, int64(999)).Return(nil, nil)

	record, err := service.TransferToken(ctx, 100, 999, "RCF", 1500)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockAccountRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
}

func TestExchangeService_TransferToken_SelfTransfer(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewExchangeService(mockFactory, nil)

	record, err := service.TransferToken(ctx, 100, 100, "RCF", 1500)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestExchangeService_TransferNFT_ListedCar(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOwnershipRepo := new(MockOwnershipRepository)
	mockListingRepo := new(MockListingRepository)

	mockUoW.SetRepositories(nil, mockOwnershipRepo, nil, nil, nil, mockListingRepo, nil, nil, nil)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockOwnershipRepo.On("Get", ctx, int64(100), int64(5)).Return(&models.CarOwnership{OwnerID: 100, CarID: 5, Quantity: 1}, nil)
	mockListingRepo.On("HasActiveForCar", ctx, int64(5)).Return(true, nil)

	record, err := service.TransferNFT(ctx, 100, 200, 5)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	mockOwnershipRepo.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExchangeService_TransferNFT_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockOwnershipRepo := new(MockOwnershipRepository)
	mockListingRepo := new(MockListingRepository)
	mockExchangeRepo := new(MockExchangeRecordRepository)
	mockBus := new(MockEventPublisher)

	mockUoW.SetRepositories(nil, mockOwnershipRepo, nil, nil, nil, mockListingRepo, nil, mockExchangeRepo, nil)
	mockUoW.SetEventBus(mockBus)

	service := NewExchangeService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockOwnershipRepo.On("Get", ctx, int64(100), int64(5)).Return(&models.CarOwnership{OwnerID: 100, CarID: 5, Quantity: 1}, nil)
	mockListingRepo.On("HasActiveForCar", ctx, int64(5)).Return(false, nil)
	mockOwnershipRepo.On("Transfer", ctx, int64(100), int64(200), int64(5)).Return(nil)

	mockExchangeRepo.On("RecordNFT", ctx, mock.MatchedBy(func(r *models.NFTRecord) bool {
		return r.FromID == 100 && r.ToID == 200 && r.CarID == 5 && len(r.Signature) == 32
	})).Return(nil)

	mockBus.On("Publish", mock.AnythingOfType("events.NFTTransferredEvent")).Return()

	record, err := service.TransferNFT(ctx, 100, 200, 5)

	assert.NoError(t, err)
	assert.NotNil(t, record)

	mockUoW.AssertExpectations(t)
	mockOwnershipRepo.AssertExpectations(t)
	mockListingRepo.AssertExpectations(t)
	mockExchangeRepo.AssertExpectations(t)
}
