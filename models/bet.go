package models

import (
	"time"
)

// BetStatus represents the state of a two-party race bet
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"
	BetStatusResolved  BetStatus = "resolved"
	BetStatusCancelled BetStatus = "cancelled"
)

// Bet represents a head-to-head stake on a race outcome between two users.
// Both parties are debited the stake amount at creation; the winner is
// credited twice the stake at resolution.
type Bet struct {
	ID         int64      `db:"id" json:"id"`
	Player1ID  int64      `db:"player1_id" json:"player1Id"`
	Player2ID  int64      `db:"player2_id" json:"player2Id"`
	Amount     int64      `db:"amount" json:"amount"`
	Status     BetStatus  `db:"status" json:"status"`
	WinnerID   *int64     `db:"winner_id" json:"winnerId,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// IsParticipant checks if a user is one of the two parties
func (b *Bet) IsParticipant(userID int64) bool {
	return b.Player1ID == userID || b.Player2ID == userID
}

// Opponent returns the other party's ID for a given participant
func (b *Bet) Opponent(userID int64) int64 {
	if b.Player1ID == userID {
		return b.Player2ID
	}
	if b.Player2ID == userID {
		return b.Player1ID
	}
	return 0
}

// RaceOutcome is the closed set of race-result submission shapes.
// The structured form carries explicit participants and telemetry; the
// free-text form only names a winner slot and is mapped onto the most
// recent pending bet.
type RaceOutcome interface {
	raceOutcome()
}

// StructuredOutcome is a full race result submitted by a client
type StructuredOutcome struct {
	UserID   int64
	RivalID  int64
	RaceTime float64
	Won      bool
	Position int
}

// FreeTextOutcome is a parsed "gana player N" result. WinnerSlot is 1 or 2,
// referring to the bet's player1/player2 columns.
type FreeTextOutcome struct {
	WinnerSlot int
}

func (StructuredOutcome) raceOutcome() {}
func (FreeTextOutcome) raceOutcome()   {}

// RaceResult is the audit row written for every resolved race
type RaceResult struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	RivalID   int64     `db:"rival_id"`
	RaceTime  float64   `db:"race_time"`
	Position  int       `db:"position"`
	BetID     int64     `db:"bet_id"`
	CreatedAt time.Time `db:"created_at"`
}

// BetResolution represents the outcome of a settled bet (returned to the caller)
type BetResolution struct {
	Bet      *Bet
	WinnerID int64
	LoserID  int64
	Payout   int64
}
