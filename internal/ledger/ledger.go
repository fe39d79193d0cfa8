package ledger

import (
	"context"
	"time"
)

// DefaultCurrency is the currency every account is denominated in.
const DefaultCurrency = "INR"

// Account is the ledger record holding a balance for one user.
// Balance is held in minor units (paise), never floating point.
type Account struct {
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"-"`
	Balance       int64     `json:"-"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"createdTimestamp"`
	UpdatedAt     time.Time `json:"updatedTimestamp"`
}

// Transfer is the persisted record of one committed transfer.
// FromBalanceAfter/ToBalanceAfter carry the post-commit balances back to
// the caller (for view refresh and events); they are not persisted.
type Transfer struct {
	ID             string    `json:"id"`
	IdempotencyKey string    `json:"-"`
	FromAccount    string    `json:"fromAccount"`
	ToAccount      string    `json:"toAccount"`
	Amount         int64     `json:"-"`
	Reference      string    `json:"reference,omitempty"`
	CreatedAt      time.Time `json:"createdTimestamp"`

	Replayed         bool  `json:"-"`
	FromBalanceAfter int64 `json:"-"`
	ToBalanceAfter   int64 `json:"-"`
}

// Store is the account store: the sole shared mutable resource of the
// ledger. All balance mutation goes through Transfer, which must apply
// the debit and credit atomically, both visible or neither, under any
// interleaving of concurrent callers.
type Store interface {
	// CreateAccount provisions a new account. Called once per user at signup.
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccount returns the latest committed state of an account, or
	// ErrAccountNotFound.
	GetAccount(ctx context.Context, accountNumber string) (*Account, error)

	// GetAccountByUserID resolves a verified caller identity to their
	// account, or ErrAccountNotFound.
	GetAccountByUserID(ctx context.Context, userID string) (*Account, error)

	// Transfer debits `from` and credits `to` by amount minor units inside
	// one atomic unit of work. Existence of both accounts and sufficiency
	// of the source balance are evaluated on the locked rows, not from any
	// earlier read. Preconditions amount > 0 and from != to are the
	// caller's responsibility.
	//
	// When idempotencyKey is non-empty and a transfer with that key has
	// already committed, the original transfer is returned with Replayed
	// set and no balances change.
	Transfer(ctx context.Context, from, to string, amount int64, idempotencyKey, reference string) (*Transfer, error)

	// ListTransfers returns all transfers where the account is either side,
	// newest first.
	ListTransfers(ctx context.Context, accountNumber string) ([]Transfer, error)
}
