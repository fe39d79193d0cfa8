package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stutxi/paytm/internal/ledger"
)

// MemoryAccountStore is an in-memory implementation of ledger.Store with
// the same atomicity guarantees as the PostgreSQL store. It backs the
// ledger property tests, which exercise the full store contract without a
// database.
//
// Locking discipline: mapMu guards the map/slice structure only; each
// account's balance is guarded by its own mutex, acquired in sorted order
// for transfers (the in-memory equivalent of ordered row locks). Transfers
// over disjoint account pairs do not block each other.
type MemoryAccountStore struct {
	mapMu sync.Mutex             // protects accounts, transfers, byKey and locks
	locks map[string]*sync.Mutex // one mutex per account

	accounts  map[string]*ledger.Account
	transfers []ledger.Transfer
	byKey     map[string]int // idempotency key -> index into transfers

	// beforeCommit, when set, runs after the debit/credit amounts are
	// computed but before either balance is written. Lets tests inject a
	// fault at the store boundary and assert nothing changed.
	beforeCommit func() error
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		locks:    make(map[string]*sync.Mutex),
		accounts: make(map[string]*ledger.Account),
		byKey:    make(map[string]int),
	}
}

func (m *MemoryAccountStore) accountLock(accountNumber string) *sync.Mutex {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()

	if _, exists := m.locks[accountNumber]; !exists {
		m.locks[accountNumber] = &sync.Mutex{}
	}
	return m.locks[accountNumber]
}

func (m *MemoryAccountStore) CreateAccount(ctx context.Context, account *ledger.Account) error {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()

	copied := *account
	m.accounts[account.AccountNumber] = &copied
	return nil
}

func (m *MemoryAccountStore) GetAccount(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	lock := m.accountLock(accountNumber)
	lock.Lock()
	defer lock.Unlock()

	m.mapMu.Lock()
	account, exists := m.accounts[accountNumber]
	m.mapMu.Unlock()

	if !exists {
		return nil, ledger.ErrAccountNotFound
	}
	// Safe to copy here: every balance mutation holds this account's lock.
	copied := *account
	return &copied, nil
}

func (m *MemoryAccountStore) GetAccountByUserID(ctx context.Context, userID string) (*ledger.Account, error) {
	m.mapMu.Lock()
	accountNumber := ""
	for _, account := range m.accounts {
		if account.UserID == userID {
			accountNumber = account.AccountNumber
			break
		}
	}
	m.mapMu.Unlock()

	if accountNumber == "" {
		return nil, ledger.ErrAccountNotFound
	}
	return m.GetAccount(ctx, accountNumber)
}

// Transfer locks both account mutexes in sorted order, re-reads the
// balances under the locks, and applies both sides or neither.
func (m *MemoryAccountStore) Transfer(ctx context.Context, from, to string, amount int64, idempotencyKey, reference string) (*ledger.Transfer, error) {
	fromLock := m.accountLock(from)
	toLock := m.accountLock(to)

	if from < to {
		fromLock.Lock()
		toLock.Lock()
	} else {
		toLock.Lock()
		fromLock.Lock()
	}
	defer fromLock.Unlock()
	defer toLock.Unlock()

	m.mapMu.Lock()
	if idempotencyKey != "" {
		if idx, exists := m.byKey[idempotencyKey]; exists {
			replayed := m.transfers[idx]
			replayed.Replayed = true
			m.mapMu.Unlock()
			return &replayed, nil
		}
	}
	fromAccount := m.accounts[from]
	toAccount := m.accounts[to]
	m.mapMu.Unlock()

	if fromAccount == nil {
		return nil, ledger.ErrSourceAccountNotFound
	}
	if toAccount == nil {
		return nil, ledger.ErrDestinationAccountNotFound
	}

	if fromAccount.Balance < amount {
		return nil, ledger.ErrInsufficientFunds
	}

	fromBalance := fromAccount.Balance - amount
	toBalance := toAccount.Balance + amount

	if m.beforeCommit != nil {
		if err := m.beforeCommit(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	fromAccount.Balance = fromBalance
	fromAccount.UpdatedAt = now
	toAccount.Balance = toBalance
	toAccount.UpdatedAt = now

	transfer := ledger.Transfer{
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

	m.mapMu.Lock()
	m.transfers = append(m.transfers, transfer)
	if idempotencyKey != "" {
		m.byKey[idempotencyKey] = len(m.transfers) - 1
	}
	m.mapMu.Unlock()

	copied := transfer
	return &copied, nil
}

func (m *MemoryAccountStore) ListTransfers(ctx context.Context, accountNumber string) ([]ledger.Transfer, error) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()

	var result []ledger.Transfer
	for i := len(m.transfers) - 1; i >= 0; i-- {
		t := m.transfers[i]
		if t.FromAccount == accountNumber || t.ToAccount == accountNumber {
			result = append(result, t)
		}
	}
	return result, nil
}

// Compile-time check: MemoryAccountStore implements the ledger store contract.
var _ ledger.Store = (*MemoryAccountStore)(nil)
