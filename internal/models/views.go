package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// BalanceView is the API shape of a balance read. Balance is emitted as a
// decimal in major units; internally everything is minor-unit int64.
type BalanceView struct {
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
}

// TransferView is the API shape of one committed transfer.
type TransferView struct {
	ID          string          `json:"id"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	CreatedAt   time.Time       `json:"createdTimestamp"`
}
