package cqrs

import "github.com/shopspring/decimal"

type CreateUserCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UpdateUserCommand struct {
	UserID    string
	Password  string
	FirstName string
	LastName  string
}

// TransferCommand carries one transfer request into the engine.
// FromAccount is resolved from the verified caller identity by the
// transport layer and is trusted here.
type TransferCommand struct {
	FromAccount    string
	ToAccount      string
	Amount         decimal.Decimal
	Reference      string
	IdempotencyKey string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
