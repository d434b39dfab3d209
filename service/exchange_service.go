package service

import (
	"context"
	"errors"
	"fmt"

	"raceledger/events"
	"raceledger/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultTradesLimit = 10
	maxTradesLimit     = 100
)

// ExchangeCache caches order book reads. Implementations return
// models.ErrNotFound on a miss.
type ExchangeCache interface {
	GetOrderBook(ctx context.Context, pair string) (*models.OrderBook, error)
	SetOrderBook(ctx context.Context, pair string, book *models.OrderBook) error
	InvalidateOrderBook(ctx context.Context, pair string) error
}

type exchangeService struct {
	uowFactory UnitOfWorkFactory
	cache      ExchangeCache
}

// NewExchangeService creates a new exchange service. cache may be nil, in
// which case every order book read hits the database.
func NewExchangeService(uowFactory UnitOfWorkFactory, cache ExchangeCache) ExchangeService {
	return &exchangeService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// CreateOrder posts a standing order for a pair
func (s *exchangeService) CreateOrder(ctx context.Context, ownerID int64, side models.OrderSide, kind models.OrderKind, amount int64, pair string, price *int64) (*models.Order, error) {
	if side != models.OrderSideBuy && side != models.OrderSideSell {
		return nil, fmt.Errorf("invalid order side %q: %w", side, models.ErrInvalidArgument)
	}
	if kind != models.OrderKindLimit && kind != models.OrderKindMarket {
		return nil, fmt.Errorf("invalid order kind %q: %w", kind, models.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive: %w", models.ErrInvalidArgument)
	}
	if pair == "" {
		return nil, fmt.Errorf("pair is required: %w", models.ErrInvalidArgument)
	}
	if kind == models.OrderKindLimit && (price == nil || *price <= 0) {
		return nil, fmt.Errorf("limit orders require a positive price: %w", models.ErrInvalidArgument)
	}
	if kind == models.OrderKindMarket {
		price = nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	order := &models.Order{
		OwnerID: ownerID,
		Side:    side,
		Kind:    kind,
		Price:   price,
		Amount:  amount,
		Status:  models.OrderStatusOpen,
		Pair:    pair,
	}

	if err := uow.OrderRepository().Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	uow.EventBus().Publish(events.OrderCreatedEvent{
		OrderID: order.ID,
		OwnerID: ownerID,
		Side:    string(side),
		Pair:    pair,
		Amount:  amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidate(ctx, pair)
	return order, nil
}

// OrderBook returns the open orders for a pair, served from cache when warm
func (s *exchangeService) OrderBook(ctx context.Context, pair string) (*models.OrderBook, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair is required: %w", models.ErrInvalidArgument)
	}

	if s.cache != nil {
		book, err := s.cache.GetOrderBook(ctx, pair)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			log.WithError(err).WithField("pair", pair).Warn("Order book cache read failed")
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	book, err := uow.OrderRepository().OpenByPair(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to get order book: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetOrderBook(ctx, pair, book); err != nil {
			log.WithError(err).WithField("pair", pair).Warn("Order book cache write failed")
		}
	}

	return book, nil
}

// CancelOrder cancels an order owned by the caller. Cancelling an
// already-cancelled order succeeds without touching the row.
func (s *exchangeService) CancelOrder(ctx context.Context, ownerID, orderID int64) (*models.Order, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	order, err := uow.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	if order.OwnerID != ownerID {
		return nil, fmt.Errorf("order %d belongs to another user: %w", orderID, models.ErrForbidden)
	}
	if order.Status == models.OrderStatusCancelled {
		return order, nil
	}

	if err := uow.OrderRepository().Cancel(ctx, orderID); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = models.OrderStatusCancelled

	uow.EventBus().Publish(events.OrderCancelledEvent{
		OrderID: orderID,
		OwnerID: ownerID,
		Pair:    order.Pair,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidate(ctx, order.Pair)
	return order, nil
}

// RecentTrades returns the latest settled transfers for a pair
func (s *exchangeService) RecentTrades(ctx context.Context, pair string, limit int) ([]*models.ExchangeRecord, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair is required: %w", models.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultTradesLimit
	}
	if limit > maxTradesLimit {
		limit = maxTradesLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.ExchangeRecordRepository().RecentByToken(ctx, pair, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}

	return records, nil
}

// TransferToken moves balance directly between two users. The debit and
// credit run in the same transaction, so the transfer either moves the full
// amount or nothing.
func (s *exchangeService) TransferToken(ctx context.Context, fromID, toID int64, token string, amount int64) (*models.ExchangeRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive: %w", models.ErrInvalidArgument)
	}
	if token == "" {
		return nil, fmt.Errorf("token is required: %w", models.ErrInvalidArgument)
	}
	if fromID == toID {
		return nil, fmt.Errorf("cannot transfer to yourself: %w", models.ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sender, err := uow.AccountRepository().GetByUserID(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender account: %w", err)
	}
	if sender == nil {
		return nil, fmt.Errorf("sender %d: %w", fromID, models.ErrNotFound)
	}
	receiver, err := uow.AccountRepository().GetByUserID(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receiver account: %w", err)
	}
	if receiver == nil {
		return nil, fmt.Errorf("receiver %d: %w", toID, models.ErrNotFound)
	}

	if err := uow.AccountRepository().Debit(ctx, fromID, amount); err != nil {
		return nil, fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := uow.AccountRepository().Credit(ctx, toID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit receiver: %w", err)
	}

	signature, err := newSignature()
	if err != nil {
		return nil, err
	}

	record := &models.ExchangeRecord{
		FromID:    fromID,
		ToID:      toID,
		Token:     token,
		Amount:    amount,
		Signature: signature,
	}
	if err := uow.ExchangeRecordRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	uow.EventBus().Publish(events.TokenTransferredEvent{
		FromID: fromID,
		ToID:   toID,
		Token:  token,
		Amount: amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"from":   fromID,
		"to":     toID,
		"token":  token,
		"amount": amount,
	}).Info("Token transfer settled")

	return record, nil
}

// TransferNFT moves a car directly between two users outside the
// marketplace. A car with an active listing cannot be transferred out from
// under its listing.
func (s *exchangeService) TransferNFT(ctx context.Context, fromID, toID, carID int64) (*models.NFTRecord, error) {
	if fromID == toID {
		return nil, fmt.Errorf("cannot transfer to yourself: %w", models.ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ownership, err := uow.OwnershipRepository().Get(ctx, fromID, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if ownership == nil || ownership.Quantity < 1 {
		return nil, fmt.Errorf("sender %d does not own car %d: %w", fromID, carID, models.ErrInvalidArgument)
	}

	active, err := uow.ListingRepository().HasActiveForCar(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active listings: %w", err)
	}
	if active {
		return nil, fmt.Errorf("car %d is listed on the marketplace: %w", carID, models.ErrInvalidArgument)
	}

	if err := uow.OwnershipRepository().Transfer(ctx, fromID, toID, carID); err != nil {
		return nil, fmt.Errorf("failed to transfer car: %w", err)
	}

	signature, err := newSignature()
	if err != nil {
		return nil, err
	}

	record := &models.NFTRecord{
		FromID:    fromID,
		ToID:      toID,
		CarID:     carID,
		Signature: signature,
	}
	if err := uow.ExchangeRecordRepository().RecordNFT(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	uow.EventBus().Publish(events.NFTTransferredEvent{
		FromID: fromID,
		ToID:   toID,
		CarID:  carID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record, nil
}

func (s *exchangeService) invalidate(ctx context.Context, pair string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrderBook(ctx, pair); err != nil {
		log.WithError(err).WithField("pair", pair).Warn("Order book cache invalidation failed")
	}
}
