package service

import (
	"context"

	"raceledger/events"
	"raceledger/models"
)

// AccountRepository defines the interface for ledger account data access
type AccountRepository interface {
	// GetByUserID retrieves an account by its owner's user ID
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, userID int64, initialBalance int64) (*models.Account, error)

	// Credit adds to an account's balance atomically
	Credit(ctx context.Context, userID int64, amount int64) error

	// Debit removes from an account's balance atomically, failing with
	// models.ErrInsufficientFunds if the balance would go negative
	Debit(ctx context.Context, userID int64, amount int64) error
}

// OwnershipRepository defines the interface for car ownership data access
type OwnershipRepository interface {
	// Get retrieves the ownership row for an owner/car pair
	Get(ctx context.Context, ownerID, carID int64) (*models.CarOwnership, error)

	// Grant adds quantity of a car to an owner, creating the row if needed
	Grant(ctx context.Context, ownerID, carID int64, quantity int) error

	// Transfer moves one unit of a car from one owner to another, failing
	// with models.ErrNotFound if the sender does not own it
	Transfer(ctx context.Context, fromID, toID, carID int64) error
}

// CarRepository defines the interface for the car catalog
type CarRepository interface {
	// GetByID retrieves a car by its ID
	GetByID(ctx context.Context, id int64) (*models.Car, error)

	// GetAll returns the full car catalog
	GetAll(ctx context.Context) ([]*models.Car, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new pending bet
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by its ID
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// FindPendingByPair locks and returns the pending bet between the
	// unordered user pair, or nil if none exists
	FindPendingByPair(ctx context.Context, userID, rivalID int64) (*models.Bet, error)

	// FindLatestPending locks and returns the most recently created
	// pending bet, or nil if none exists
	FindLatestPending(ctx context.Context) (*models.Bet, error)

	// MarkResolved flips a bet from pending to resolved and records the
	// winner. Fails with models.ErrNotFound if the bet is no longer pending.
	MarkResolved(ctx context.Context, betID, winnerID int64) error
}

// RaceResultRepository defines the interface for race result audit rows
type RaceResultRepository interface {
	// Record appends a race result row
	Record(ctx context.Context, result *models.RaceResult) error
}

// ListingRepository defines the interface for marketplace listing data access
type ListingRepository interface {
	// Create creates a new listing
	Create(ctx context.Context, listing *models.Listing) error

	// GetByID retrieves a listing by its ID
	GetByID(ctx context.Context, id int64) (*models.Listing, error)

	// HasActiveForCar reports whether the car has a listed or pending listing
	HasActiveForCar(ctx context.Context, carID int64) (bool, error)

	// MarkSold flips a listing from listed to sold. Fails with
	// models.ErrNotFound if the listing is not currently listed; this is
	// the exclusivity gate against concurrent buyers.
	MarkSold(ctx context.Context, listingID int64) error

	// MarketEntries returns the marketplace view of the catalog: every car
	// joined with its active listing, if any
	MarketEntries(ctx context.Context) ([]*models.MarketEntry, error)
}

// OrderRepository defines the interface for exchange order data access
type OrderRepository interface {
	// Create creates a new open order
	Create(ctx context.Context, order *models.Order) error

	// GetByID retrieves an order by its ID
	GetByID(ctx context.Context, id int64) (*models.Order, error)

	// Cancel sets an order's status to cancelled
	Cancel(ctx context.Context, orderID int64) error

	// OpenByPair returns the open orders for a pair: buys price-descending,
	// sells price-ascending
	OpenByPair(ctx context.Context, pair string) (*models.OrderBook, error)
}

// ExchangeRecordRepository defines the interface for settlement audit rows
type ExchangeRecordRepository interface {
	// Record appends an exchange record
	Record(ctx context.Context, record *models.ExchangeRecord) error

	// RecordNFT appends a direct asset transfer record
	RecordNFT(ctx context.Context, record *models.NFTRecord) error

	// RecentByToken returns the most recent records for a token/pair
	RecentByToken(ctx context.Context, token string, limit int) ([]*models.ExchangeRecord, error)
}

// BillingRepository defines the interface for billing transaction rows
type BillingRepository interface {
	// Record appends a billing transaction
	Record(ctx context.Context, tx *models.BillingTransaction) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork represents one transactional boundary. Every multi-step
// settlement unit runs against the repositories of a single UnitOfWork so
// that all of its effects commit or roll back together.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events.
	// Safe to call after Commit (no-op).
	Rollback() error

	AccountRepository() AccountRepository
	OwnershipRepository() OwnershipRepository
	CarRepository() CarRepository
	BetRepository() BetRepository
	RaceResultRepository() RaceResultRepository
	ListingRepository() ListingRepository
	OrderRepository() OrderRepository
	ExchangeRecordRepository() ExchangeRecordRepository
	BillingRepository() BillingRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WagerService defines the interface for wager settlement operations
type WagerService interface {
	// CreateBet locks both parties' stakes and opens a pending bet
	CreateBet(ctx context.Context, userID, rivalID, amount int64) (*models.Bet, error)

	// ResolveRace settles the pending bet selected by the outcome: the
	// structured form names its participants, the free-text form maps a
	// winner slot onto the most recent pending bet
	ResolveRace(ctx context.Context, outcome models.RaceOutcome) (*models.BetResolution, error)
}

// MarketplaceService defines the interface for marketplace trades
type MarketplaceService interface {
	// ListForSale creates a listing for a car the seller currently owns
	ListForSale(ctx context.Context, carID, sellerID, price int64, currency string) (*models.Listing, error)

	// Listings returns the marketplace view of the car catalog
	Listings(ctx context.Context) ([]*models.MarketEntry, error)

	// Catalog returns the raw car catalog
	Catalog(ctx context.Context) ([]*models.Car, error)

	// Buy settles a listed sale: payment, ownership transfer and listing
	// closure as one unit
	Buy(ctx context.Context, listingID, buyerID int64) (*models.PurchaseResult, error)

	// BuyFromShop sells a catalog car directly to the buyer, with the shop
	// as the synthetic counterpart
	BuyFromShop(ctx context.Context, carID, buyerID int64) (*models.PurchaseResult, error)
}

// ExchangeService defines the interface for the order book and direct transfers
type ExchangeService interface {
	// CreateOrder posts a standing order for a pair
	CreateOrder(ctx context.Context, ownerID int64, side models.OrderSide, kind models.OrderKind, amount int64, pair string, price *int64) (*models.Order, error)

	// OrderBook returns the open orders for a pair
	OrderBook(ctx context.Context, pair string) (*models.OrderBook, error)

	// CancelOrder cancels an order owned by the caller. Cancelling an
	// already-cancelled order is a no-op success.
	CancelOrder(ctx context.Context, ownerID, orderID int64) (*models.Order, error)

	// RecentTrades returns the latest settled transfers for a pair
	RecentTrades(ctx context.Context, pair string, limit int) ([]*models.ExchangeRecord, error)

	// TransferToken moves balance directly between two users
	TransferToken(ctx context.Context, fromID, toID int64, token string, amount int64) (*models.ExchangeRecord, error)

	// TransferNFT moves a car directly between two users outside the
	// marketplace; the car must not be actively listed
	TransferNFT(ctx context.Context, fromID, toID, carID int64) (*models.NFTRecord, error)
}

// AccountService defines the interface for account reads
type AccountService interface {
	// GetAccount returns a user's ledger account
	GetAccount(ctx context.Context, userID int64) (*models.Account, error)
}
