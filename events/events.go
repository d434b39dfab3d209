package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of settlement events in the system
type EventType string

const (
	EventTypeBetCreated       EventType = "bet_created"
	EventTypeBetResolved      EventType = "bet_resolved"
	EventTypeListingCreated   EventType = "listing_created"
	EventTypeListingSold      EventType = "listing_sold"
	EventTypeOrderCreated     EventType = "order_created"
	EventTypeOrderCancelled   EventType = "order_cancelled"
	EventTypeTokenTransferred EventType = "token_transferred"
	EventTypeNFTTransferred   EventType = "nft_transferred"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetCreatedEvent represents a new pending bet with both stakes locked
type BetCreatedEvent struct {
	BetID     int64
	Player1ID int64
	Player2ID int64
	Amount    int64
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// BetResolvedEvent represents a settled bet
type BetResolvedEvent struct {
	BetID    int64
	WinnerID int64
	LoserID  int64
	Payout   int64
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// ListingCreatedEvent represents a car put up for sale
type ListingCreatedEvent struct {
	ListingID int64
	CarID     int64
	SellerID  int64
	Price     int64
}

func (e ListingCreatedEvent) Type() EventType {
	return EventTypeListingCreated
}

// ListingSoldEvent represents a completed marketplace or shop sale
type ListingSoldEvent struct {
	ListingID int64
	CarID     int64
	SellerID  int64
	BuyerID   int64
	Price     int64
}

func (e ListingSoldEvent) Type() EventType {
	return EventTypeListingSold
}

// OrderCreatedEvent represents a new standing order
type OrderCreatedEvent struct {
	OrderID int64
	OwnerID int64
	Side    string
	Pair    string
	Amount  int64
}

func (e OrderCreatedEvent) Type() EventType {
	return EventTypeOrderCreated
}

// OrderCancelledEvent represents a cancelled order
type OrderCancelledEvent struct {
	OrderID int64
	OwnerID int64
	Pair    string
}

func (e OrderCancelledEvent) Type() EventType {
	return EventTypeOrderCancelled
}

// TokenTransferredEvent represents a direct balance transfer
type TokenTransferredEvent struct {
	FromID int64
	ToID   int64
	Token  string
	Amount int64
}

func (e TokenTransferredEvent) Type() EventType {
	return EventTypeTokenTransferred
}

// NFTTransferredEvent represents a direct asset transfer
type NFTTransferredEvent struct {
	FromID int64
	ToID   int64
	CarID  int64
}

func (e NFTTransferredEvent) Type() EventType {
	return EventTypeNFTTransferred
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking settlement
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus over a real bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit.
// Events are emitted on a background context so their processing is
// independent of the transaction lifecycle.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
