package service

import (
	"context"
	"fmt"
	"strings"

	"raceledger/events"
	"raceledger/models"

	log "github.com/sirupsen/logrus"
)

// RCFToken is the currency tag written on ledger-settled exchange records
const RCFToken = "RCF"

type wagerService struct {
	uowFactory UnitOfWorkFactory
}

// NewWagerService creates a new wager service
func NewWagerService(uowFactory UnitOfWorkFactory) WagerService {
	return &wagerService{
		uowFactory: uowFactory,
	}
}

// ParseRaceResultText parses a free-text race result of the form
// "gana player 1" / "gana player 2" into a FreeTextOutcome.
func ParseRaceResultText(resultado string) (models.FreeTextOutcome, error) {
	lower := strings.ToLower(resultado)
	switch {
	case strings.Contains(lower, "player 1"):
		return models.FreeTextOutcome{WinnerSlot: 1}, nil
	case strings.Contains(lower, "player 2"):
		return models.FreeTextOutcome{WinnerSlot: 2}, nil
	default:
		return models.FreeTextOutcome{}, fmt.Errorf("unrecognized result format %q: %w", resultado, models.ErrInvalidArgument)
	}
}

// CreateBet locks both parties' stakes and opens a pending bet. Both debits
// and the bet insert are one atomic unit: if the rival's debit fails the
// user's is rolled back with it.
func (s *wagerService) CreateBet(ctx context.Context, userID, rivalID, amount int64) (*models.Bet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive: %w", models.ErrInvalidArgument)
	}
	if userID == rivalID {
		return nil, fmt.Errorf("cannot bet against yourself: %w", models.ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Both parties need an account before any stake is locked
	for _, id := range []int64{userID, rivalID} {
		account, err := uow.AccountRepository().GetByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("user %d has no wallet: %w", id, models.ErrInvalidArgument)
		}
	}

	if err := uow.AccountRepository().Debit(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to lock stake for user %d: %w", userID, err)
	}
	if err := uow.AccountRepository().Debit(ctx, rivalID, amount); err != nil {
		return nil, fmt.Errorf("failed to lock stake for rival %d: %w", rivalID, err)
	}

	bet := &models.Bet{
		Player1ID: userID,
		Player2ID: rivalID,
		Amount:    amount,
		Status:    models.BetStatusPending,
	}

	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	uow.EventBus().Publish(events.BetCreatedEvent{
		BetID:     bet.ID,
		Player1ID: userID,
		Player2ID: rivalID,
		Amount:    amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betId":  bet.ID,
		"user":   userID,
		"rival":  rivalID,
		"amount": amount,
	}).Info("Bet created, stakes locked")

	return bet, nil
}

// ResolveRace settles the pending bet selected by the outcome. Lookup,
// status flip and payout run in one transaction; the pending predicate on
// the flip is the idempotency guard, so a second resolution attempt for
// the same pair fails with not found instead of double-paying.
func (s *wagerService) ResolveRace(ctx context.Context, outcome models.RaceOutcome) (*models.BetResolution, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var bet *models.Bet
	var winnerID int64
	var result *models.RaceResult

	switch o := outcome.(type) {
	case models.StructuredOutcome:
		var err error
		bet, err = uow.BetRepository().FindPendingByPair(ctx, o.UserID, o.RivalID)
		if err != nil {
			return nil, fmt.Errorf("failed to find pending bet: %w", err)
		}
		if bet == nil {
			return nil, fmt.Errorf("no pending bet between users %d and %d: %w", o.UserID, o.RivalID, models.ErrNotFound)
		}

		winnerID = o.RivalID
		if o.Won {
			winnerID = o.UserID
		}

		result = &models.RaceResult{
			UserID:   o.UserID,
			RivalID:  o.RivalID,
			RaceTime: o.RaceTime,
			Position: o.Position,
			BetID:    bet.ID,
		}

	case models.FreeTextOutcome:
		if o.WinnerSlot != 1 && o.WinnerSlot != 2 {
			return nil, fmt.Errorf("winner slot must be 1 or 2: %w", models.ErrInvalidArgument)
		}

		var err error
		bet, err = uow.BetRepository().FindLatestPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find pending bet: %w", err)
		}
		if bet == nil {
			return nil, fmt.Errorf("no pending bet: %w", models.ErrNotFound)
		}

		winnerID = bet.Player1ID
		if o.WinnerSlot == 2 {
			winnerID = bet.Player2ID
		}

		// Free-text results carry no telemetry
		result = &models.RaceResult{
			UserID:   winnerID,
			RivalID:  bet.Opponent(winnerID),
			RaceTime: 0,
			Position: 1,
			BetID:    bet.ID,
		}

	default:
		return nil, fmt.Errorf("unsupported race outcome: %w", models.ErrInvalidArgument)
	}

	loserID := bet.Opponent(winnerID)
	payout := 2 * bet.Amount

	if err := uow.BetRepository().MarkResolved(ctx, bet.ID, winnerID); err != nil {
		return nil, fmt.Errorf("failed to mark bet resolved: %w", err)
	}

	if err := uow.AccountRepository().Credit(ctx, winnerID, payout); err != nil {
		return nil, fmt.Errorf("failed to pay winner %d: %w", winnerID, err)
	}

	signature, err := newSignature()
	if err != nil {
		return nil, err
	}

	record := &models.ExchangeRecord{
		FromID:    loserID,
		ToID:      winnerID,
		Token:     RCFToken,
		Amount:    payout,
		Signature: signature,
	}
	if err := uow.ExchangeRecordRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	if err := uow.RaceResultRepository().Record(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record race result: %w", err)
	}

	uow.EventBus().Publish(events.BetResolvedEvent{
		BetID:    bet.ID,
		WinnerID: winnerID,
		LoserID:  loserID,
		Payout:   payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	bet.Status = models.BetStatusResolved
	bet.WinnerID = &winnerID

	log.WithFields(log.Fields{
		"betId":  bet.ID,
		"winner": winnerID,
		"loser":  loserID,
		"payout": payout,
	}).Info("Bet resolved, winner paid")

	return &models.BetResolution{
		Bet:      bet,
		WinnerID: winnerID,
		LoserID:  loserID,
		Payout:   payout,
	}, nil
}
