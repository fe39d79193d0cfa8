package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"

	TransferCompleted = "transfer.completed"
	BalanceUpdated    = "balance.updated"
)

// Stream names
const (
	UserEventsStream     = "user.events"
	TransferEventsStream = "transfer.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
}

type UserUpdatedEvent struct {
	UserID string `json:"userId"`
}

// Transfer events
type TransferCompletedEvent struct {
	TransferID  string          `json:"transferId"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

type BalanceUpdatedEvent struct {
	AccountNumber string          `json:"accountNumber"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}
