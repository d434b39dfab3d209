package service

import (
	"context"

	"raceledger/events"
	"raceledger/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, userID int64, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, userID, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Debit(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

// MockOwnershipRepository is a mock implementation of OwnershipRepository
type MockOwnershipRepository struct {
	mock.Mock
}

func (m *MockOwnershipRepository) Get(ctx context.Context, ownerID, carID int64) (*models.CarOwnership, error) {
	args := m.Called(ctx, ownerID, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CarOwnership), args.Error(1)
}

func (m *MockOwnershipRepository) Grant(ctx context.Context, ownerID, carID int64, quantity int) error {
	args := m.Called(ctx, ownerID, carID, quantity)
	return args.Error(0)
}

func (m *MockOwnershipRepository) Transfer(ctx context.Context, fromID, toID, carID int64) error {
	args := m.Called(ctx, fromID, toID, carID)
	return args.Error(0)
}

// MockCarRepository is a mock implementation of CarRepository
type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) GetByID(ctx context.Context, id int64) (*models.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarRepository) GetAll(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) FindPendingByPair(ctx context.Context, userID, rivalID int64) (*models.Bet, error) {
	args := m.Called(ctx, userID, rivalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) FindLatestPending(ctx context.Context) (*models.Bet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) MarkResolved(ctx context.Context, betID, winnerID int64) error {
	args := m.Called(ctx, betID, winnerID)
	return args.Error(0)
}

// MockRaceResultRepository is a mock implementation of RaceResultRepository
type MockRaceResultRepository struct {
	mock.Mock
}

func (m *MockRaceResultRepository) Record(ctx context.Context, result *models.RaceResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockListingRepository is a mock implementation of ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) HasActiveForCar(ctx context.Context, carID int64) (bool, error) {
	args := m.Called(ctx, carID)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) MarkSold(ctx context.Context, listingID int64) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

func (m *MockListingRepository) MarketEntries(ctx context.Context) ([]*models.MarketEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MarketEntry), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Cancel(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) OpenByPair(ctx context.Context, pair string) (*models.OrderBook, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderBook), args.Error(1)
}

// MockExchangeRecordRepository is a mock implementation of ExchangeRecordRepository
type MockExchangeRecordRepository struct {
	mock.Mock
}

func (m *MockExchangeRecordRepository) Record(ctx context.Context, record *models.ExchangeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExchangeRecordRepository) RecordNFT(ctx context.Context, record *models.NFTRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExchangeRecordRepository) RecentByToken(ctx context.Context, token string, limit int) ([]*models.ExchangeRecord, error) {
	args := m.Called(ctx, token, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExchangeRecord), args.Error(1)
}

// MockBillingRepository is a mock implementation of BillingRepository
type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Record(ctx context.Context, tx *models.BillingTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// accessors return whatever SetRepositories installed, so tests wire in
// exactly the repository mocks they need.
type MockUnitOfWork struct {
	mock.Mock

	accounts        AccountRepository
	ownerships      OwnershipRepository
	cars            CarRepository
	bets            BetRepository
	raceResults     RaceResultRepository
	listings        ListingRepository
	orders          OrderRepository
	exchangeRecords ExchangeRecordRepository
	billing         BillingRepository
	eventBus        EventPublisher
}

// SetRepositories installs the repository mocks this unit of work hands out.
// Pass nil for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	ownerships OwnershipRepository,
	cars CarRepository,
	bets BetRepository,
	raceResults RaceResultRepository,
	listings ListingRepository,
	orders OrderRepository,
	exchangeRecords ExchangeRecordRepository,
	billing BillingRepository,
) {
	m.accounts = accounts
	m.ownerships = ownerships
	m.cars = cars
	m.bets = bets
	m.raceResults = raceResults
	m.listings = listings
	m.orders = orders
	m.exchangeRecords = exchangeRecords
	m.billing = billing
}

// SetEventBus installs the event publisher this unit of work hands out
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository { return m.accounts }

func (m *MockUnitOfWork) OwnershipRepository() OwnershipRepository { return m.ownerships }

func (m *MockUnitOfWork) CarRepository() CarRepository { return m.cars }

func (m *MockUnitOfWork) BetRepository() BetRepository { return m.bets }

func (m *MockUnitOfWork) RaceResultRepository() RaceResultRepository { return m.raceResults }

func (m *MockUnitOfWork) ListingRepository() ListingRepository { return m.listings }

func (m *MockUnitOfWork) OrderRepository() OrderRepository { return m.orders }

func (m *MockUnitOfWork) ExchangeRecordRepository() ExchangeRecordRepository {
	return m.exchangeRecords
}

func (m *MockUnitOfWork) BillingRepository() BillingRepository { return m.billing }

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
