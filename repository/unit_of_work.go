package repository

import (
	"context"
	"fmt"

	"raceledger/database"
	"raceledger/events"
	"raceledger/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	accountRepo        service.AccountRepository
	ownershipRepo      service.OwnershipRepository
	carRepo            service.CarRepository
	betRepo            service.BetRepository
	raceResultRepo     service.RaceResultRepository
	listingRepo        service.ListingRepository
	orderRepo          service.OrderRepository
	exchangeRecordRepo service.ExchangeRecordRepository
	billingRepo        service.BillingRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction and binds all repositories to it
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.ownershipRepo = newOwnershipRepositoryWithTx(tx)
	u.carRepo = newCarRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.raceResultRepo = newRaceResultRepositoryWithTx(tx)
	u.listingRepo = newListingRepositoryWithTx(tx)
	u.orderRepo = newOrderRepositoryWithTx(tx)
	u.exchangeRecordRepo = newExchangeRecordRepositoryWithTx(tx)
	u.billingRepo = newBillingRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events.
// No-op when the transaction has already been committed.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

func (u *unitOfWork) OwnershipRepository() service.OwnershipRepository {
	if u.ownershipRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ownershipRepo
}

func (u *unitOfWork) CarRepository() service.CarRepository {
	if u.carRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.carRepo
}

func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

func (u *unitOfWork) RaceResultRepository() service.RaceResultRepository {
	if u.raceResultRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raceResultRepo
}

func (u *unitOfWork) ListingRepository() service.ListingRepository {
	if u.listingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.listingRepo
}

func (u *unitOfWork) OrderRepository() service.OrderRepository {
	if u.orderRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.orderRepo
}

func (u *unitOfWork) ExchangeRecordRepository() service.ExchangeRecordRepository {
	if u.exchangeRecordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.exchangeRecordRepo
}

func (u *unitOfWork) BillingRepository() service.BillingRepository {
	if u.billingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.billingRepo
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
