package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stutxi/paytm/internal/ledger"
)

// Conflict retry policy for the atomic transfer. Serialization failures and
// deadlocks are retried with a short backoff; exhaustion surfaces as
// ledger.ErrStoreFailure.
const (
	transferMaxAttempts  = 3
	transferRetryBackoff = 25 * time.Millisecond
)

// AccountStore is the PostgreSQL implementation of ledger.Store.
// It is the single source of truth for balances: every mutation happens
// inside one database transaction, and the sufficiency check is evaluated
// on rows locked with SELECT ... FOR UPDATE, never from an earlier read.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *ledger.Account) error {
	query := `
		INSERT INTO accounts (account_number, user_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.AccountNumber, account.UserID, account.Balance,
		account.Currency, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *AccountStore) GetAccount(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	query := `
		SELECT account_number, user_id, balance, currency, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, accountNumber))
}

func (s *AccountStore) GetAccountByUserID(ctx context.Context, userID string) (*ledger.Account, error) {
	query := `
		SELECT account_number, user_id, balance, currency, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, userID))
}

func (s *AccountStore) scanAccount(row *sql.Row) (*ledger.Account, error) {
	var account ledger.Account
	err := row.Scan(
		&account.AccountNumber, &account.UserID, &account.Balance,
		&account.Currency, &account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Transfer debits from and credits to inside one database transaction.
// Both rows are locked in lexicographic account-number order so that two
// concurrent transfers over the same pair cannot deadlock. Retries on
// serialization conflicts up to transferMaxAttempts.
func (s *AccountStore) Transfer(ctx context.Context, from, to string, amount int64, idempotencyKey, reference string) (*ledger.Transfer, error) {
	var lastErr error
	for attempt := 0; attempt < transferMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(transferRetryBackoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ledger.ErrStoreFailure, ctx.Err())
			}
		}

		transfer, err := s.transferOnce(ctx, from, to, amount, idempotencyKey, reference)
		if err == nil {
			return transfer, nil
		}
		if !retryableConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: transfer did not commit after %d attempts: %v",
		ledger.ErrStoreFailure, transferMaxAttempts, lastErr)
}

func (s *AccountStore) transferOnce(ctx context.Context, from, to string, amount int64, idempotencyKey, reference string) (*ledger.Transfer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", ledger.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	// Replay check: a duplicate submission returns the original transfer
	// untouched. The unique index on idempotency_key closes the race where
	// two submissions with the same key run concurrently.
	if idempotencyKey != "" {
		if existing, err := s.findByIdempotencyKey(ctx, tx, idempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			existing.Replayed = true
			return existing, nil
		}
	}

	// Lock both rows in a stable order regardless of transfer direction.
	first, second := from, to
	if second < first {
		first, second = second, first
	}

	balances := make(map[string]int64, 2)
	for _, accountNumber := range []string{first, second} {
		var balance int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM accounts WHERE account_number = $1 FOR UPDATE`,
			accountNumber,
		).Scan(&balance)
		if err == sql.ErrNoRows {
			if accountNumber == from {
				return nil, ledger.ErrSourceAccountNotFound
			}
			return nil, ledger.ErrDestinationAccountNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to lock account %s: %w", ledger.ErrStoreFailure, accountNumber, err)
		}
		balances[accountNumber] = balance
	}

	// Sufficiency is evaluated on the locked row, so no concurrent transfer
	// can invalidate it before commit.
	if balances[from] < amount {
		return nil, ledger.ErrInsufficientFunds
	}

	fromBalance := balances[from] - amount
	toBalance := balances[to] + amount

	now := time.Now().UTC()
	for _, update := range []struct {
		accountNumber string
		balance       int64
	}{
		{from, fromBalance},
		{to, toBalance},
	} {
		_, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = $2, updated_at = $3 WHERE account_number = $1`,
			update.accountNumber, update.balance, now,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to update balance: %w", ledger.ErrStoreFailure, err)
		}
	}

	transfer := &ledger.Transfer{
		ID:               uuid.New().String(),
		IdempotencyKey:   idempotencyKey,
		FromAccount:      from,
		ToAccount:        to,
		Amount:           amount,
		Reference:        reference,
		CreatedAt:        now,
		FromBalanceAfter: fromBalance,
		ToBalanceAfter:   toBalance,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transfers (id, idempotency_key, from_account, to_account, amount, reference, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
	`, transfer.ID, idempotencyKey, from, to, amount, reference, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to record transfer: %w", ledger.ErrStoreFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transfer: %w", ledger.ErrStoreFailure, err)
	}
	return transfer, nil
}

func (s *AccountStore) findByIdempotencyKey(ctx context.Context, tx *sql.Tx, key string) (*ledger.Transfer, error) {
	var transfer ledger.Transfer
	var reference sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT id, from_account, to_account, amount, reference, created_at
		FROM transfers
		WHERE idempotency_key = $1
	`, key).Scan(
		&transfer.ID, &transfer.FromAccount, &transfer.ToAccount,
		&transfer.Amount, &reference, &transfer.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check idempotency key: %v", ledger.ErrStoreFailure, err)
	}
	transfer.IdempotencyKey = key
	transfer.Reference = reference.String
	return &transfer, nil
}

func (s *AccountStore) ListTransfers(ctx context.Context, accountNumber string) ([]ledger.Transfer, error) {
	query := `
		SELECT id, from_account, to_account, amount, reference, created_at
		FROM transfers
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []ledger.Transfer
	for rows.Next() {
		var transfer ledger.Transfer
		var reference sql.NullString
		if err := rows.Scan(
			&transfer.ID, &transfer.FromAccount, &transfer.ToAccount,
			&transfer.Amount, &reference, &transfer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfer.Reference = reference.String
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

// retryableConflict reports whether the error is a transient concurrency
// conflict worth re-running the whole unit of work for:
// 40001 serialization_failure, 40P01 deadlock_detected, and a unique
// violation on the idempotency key (a concurrent duplicate just committed;
// the retry will find and replay it).
func retryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01":
		return true
	case "23505":
		return pqErr.Constraint == "transfers_idempotency_key_key"
	}
	return false
}

// Compile-time check: AccountStore implements the ledger store contract.
var _ ledger.Store = (*AccountStore)(nil)
