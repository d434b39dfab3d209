package service

import (
	"context"
	"fmt"
	"time"

	"raceledger/events"
	"raceledger/models"

	log "github.com/sirupsen/logrus"
)

type marketplaceService struct {
	uowFactory UnitOfWorkFactory
}

// NewMarketplaceService creates a new marketplace service
func NewMarketplaceService(uowFactory UnitOfWorkFactory) MarketplaceService {
	return &marketplaceService{
		uowFactory: uowFactory,
	}
}

// ListForSale creates a listing for a car the seller currently owns
func (s *marketplaceService) ListForSale(ctx context.Context, carID, sellerID, price int64, currency string) (*models.Listing, error) {
	if price <= 0 {
		return nil, fmt.Errorf("listing price must be positive: %w", models.ErrInvalidArgument)
	}
	if currency == "" {
		return nil, fmt.Errorf("currency is required: %w", models.ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	car, err := uow.CarRepository().GetByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	if car == nil {
		return nil, fmt.Errorf("car %d: %w", carID, models.ErrNotFound)
	}

	ownership, err := uow.OwnershipRepository().Get(ctx, sellerID, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if ownership == nil || ownership.Quantity < 1 {
		return nil, fmt.Errorf("seller %d does not own car %d: %w", sellerID, carID, models.ErrInvalidArgument)
	}

	active, err := uow.ListingRepository().HasActiveForCar(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active listings: %w", err)
	}
	if active {
		return nil, fmt.Errorf("car %d is already listed: %w", carID, models.ErrInvalidArgument)
	}

	listing := &models.Listing{
		CarID:    carID,
		SellerID: sellerID,
		Price:    price,
		Currency: currency,
		Status:   models.ListingStatusListed,
		Kind:     models.TradeKindSell,
	}

	if err := uow.ListingRepository().Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	uow.EventBus().Publish(events.ListingCreatedEvent{
		ListingID: listing.ID,
		CarID:     carID,
		SellerID:  sellerID,
		Price:     price,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return listing, nil
}

// Listings returns the marketplace view of the car catalog
func (s *marketplaceService) Listings(ctx context.Context) ([]*models.MarketEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.ListingRepository().MarketEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get market entries: %w", err)
	}

	return entries, nil
}

// Catalog returns the raw car catalog
func (s *marketplaceService) Catalog(ctx context.Context) ([]*models.Car, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cars, err := uow.CarRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get cars: %w", err)
	}

	return cars, nil
}

// Buy settles a listed sale as one atomic unit: closing the listing,
// moving the payment and transferring ownership commit or roll back
// together. The conditional listing flip runs first so that of two
// concurrent buyers only one proceeds to move money.
func (s *marketplaceService) Buy(ctx context.Context, listingID, buyerID int64) (*models.PurchaseResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	listing, err := uow.ListingRepository().GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing == nil || listing.Status != models.ListingStatusListed {
		return nil, fmt.Errorf("listing %d is not for sale: %w", listingID, models.ErrNotFound)
	}
	if listing.SellerID == buyerID {
		return nil, fmt.Errorf("cannot buy your own listing: %w", models.ErrInvalidArgument)
	}

	// Both wallets must exist before any money moves
	buyer, err := uow.AccountRepository().GetByUserID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer account: %w", err)
	}
	if buyer == nil {
		return nil, fmt.Errorf("buyer %d has no wallet: %w", buyerID, models.ErrInvalidArgument)
	}
	seller, err := uow.AccountRepository().GetByUserID(ctx, listing.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller account: %w", err)
	}
	if seller == nil {
		return nil, fmt.Errorf("seller %d has no wallet: %w", listing.SellerID, models.ErrInvalidArgument)
	}

	if err := uow.ListingRepository().MarkSold(ctx, listingID); err != nil {
		return nil, fmt.Errorf("failed to close listing: %w", err)
	}

	if err := uow.AccountRepository().Debit(ctx, buyerID, listing.Price); err != nil {
		return nil, fmt.Errorf("failed to charge buyer: %w", err)
	}
	if err := uow.AccountRepository().Credit(ctx, listing.SellerID, listing.Price); err != nil {
		return nil, fmt.Errorf("failed to pay seller: %w", err)
	}

	if err := uow.OwnershipRepository().Transfer(ctx, listing.SellerID, buyerID, listing.CarID); err != nil {
		return nil, fmt.Errorf("failed to transfer car: %w", err)
	}

	signature, err := newSignature()
	if err != nil {
		return nil, err
	}

	record := &models.ExchangeRecord{
		FromID:    buyerID,
		ToID:      listing.SellerID,
		Token:     listing.Currency,
		Amount:    listing.Price,
		Signature: signature,
	}
	if err := uow.ExchangeRecordRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	uow.EventBus().Publish(events.ListingSoldEvent{
		ListingID: listingID,
		CarID:     listing.CarID,
		SellerID:  listing.SellerID,
		BuyerID:   buyerID,
		Price:     listing.Price,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"listingId": listingID,
		"carId":     listing.CarID,
		"buyer":     buyerID,
		"seller":    listing.SellerID,
		"price":     listing.Price,
	}).Info("Marketplace sale settled")

	return &models.PurchaseResult{
		CarID:     listing.CarID,
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		Price:     listing.Price,
		Signature: signature,
	}, nil
}

// BuyFromShop sells a catalog car directly to the buyer. The shop is a
// value sink: the buyer's balance decreases by the price and the car count
// increases, with no counterpart balance to credit.
func (s *marketplaceService) BuyFromShop(ctx context.Context, carID, buyerID int64) (*models.PurchaseResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	car, err := uow.CarRepository().GetByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	if car == nil {
		return nil, fmt.Errorf("car %d: %w", carID, models.ErrNotFound)
	}

	buyer, err := uow.AccountRepository().GetByUserID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer account: %w", err)
	}
	if buyer == nil {
		return nil, fmt.Errorf("user %d: %w", buyerID, models.ErrNotFound)
	}

	if err := uow.AccountRepository().Debit(ctx, buyerID, car.Price); err != nil {
		return nil, fmt.Errorf("failed to charge buyer: %w", err)
	}

	if err := uow.OwnershipRepository().Grant(ctx, buyerID, carID, 1); err != nil {
		return nil, fmt.Errorf("failed to grant car: %w", err)
	}

	// Shop sales keep the same audit trail as peer trades
	listing := &models.Listing{
		CarID:    carID,
		SellerID: models.ShopSellerID,
		Price:    car.Price,
		Currency: RCFToken,
		Status:   models.ListingStatusCompleted,
		Kind:     models.TradeKindBuy,
	}
	if err := uow.ListingRepository().Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to record shop sale: %w", err)
	}

	now := time.Now()
	billing := &models.BillingTransaction{
		UserID:      buyerID,
		Amount:      -car.Price,
		TxType:      models.BillingTypeCarPurchase,
		Status:      models.BillingStatusCompleted,
		Description: fmt.Sprintf("Car purchase: %s", car.Name),
		CompletedAt: &now,
	}
	if err := uow.BillingRepository().Record(ctx, billing); err != nil {
		return nil, fmt.Errorf("failed to record billing: %w", err)
	}

	signature, err := newSignature()
	if err != nil {
		return nil, err
	}

	record := &models.ExchangeRecord{
		FromID:    buyerID,
		ToID:      models.ShopSellerID,
		Token:     RCFToken,
		Amount:    car.Price,
		Signature: signature,
	}
	if err := uow.ExchangeRecordRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	uow.EventBus().Publish(events.ListingSoldEvent{
		ListingID: listing.ID,
		CarID:     carID,
		SellerID:  models.ShopSellerID,
		BuyerID:   buyerID,
		Price:     car.Price,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.PurchaseResult{
		CarID:     carID,
		BuyerID:   buyerID,
		SellerID:  models.ShopSellerID,
		Price:     car.Price,
		Signature: signature,
	}, nil
}
