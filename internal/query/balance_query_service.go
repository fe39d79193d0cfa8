package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/events"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/models"
)

// BalanceViews is the cached balance read model consumed by the query side.
type BalanceViews interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.BalanceView, error)
	Refresh(ctx context.Context, accountNumber string)
}

// BalanceQueryService serves balance and transfer-history reads. Pure reads:
// it never mutates the store, and it only ever observes committed state.
type BalanceQueryService struct {
	store ledger.Store
	views BalanceViews
}

func NewBalanceQueryService(store ledger.Store, views BalanceViews) *BalanceQueryService {
	return &BalanceQueryService{store: store, views: views}
}

// ResolveAccount maps a verified caller identity to their account number.
func (s *BalanceQueryService) ResolveAccount(ctx context.Context, userID string) (string, error) {
	account, err := s.store.GetAccountByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return account.AccountNumber, nil
}

// GetBalance returns the latest committed balance for an account.
func (s *BalanceQueryService) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
	if s.views != nil {
		return s.views.GetByAccountNumber(ctx, q.AccountNumber)
	}
	account, err := s.store.GetAccount(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	return &models.BalanceView{
		AccountNumber: account.AccountNumber,
		Balance:       ledger.MinorUnitsToAmount(account.Balance),
		Currency:      account.Currency,
	}, nil
}

// ListTransfers returns the account's transfer history, newest first.
func (s *BalanceQueryService) ListTransfers(ctx context.Context, q cqrs.ListTransfersQuery) ([]models.TransferView, error) {
	transfers, err := s.store.ListTransfers(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	views := make([]models.TransferView, len(transfers))
	for i, t := range transfers {
		views[i] = models.TransferView{
			ID:          t.ID,
			FromAccount: t.FromAccount,
			ToAccount:   t.ToAccount,
			Amount:      ledger.MinorUnitsToAmount(t.Amount),
			Reference:   t.Reference,
			CreatedAt:   t.CreatedAt,
		}
	}
	return views, nil
}

// HandleTransferEvent re-warms the balance views of both sides of a
// committed transfer. Runs on the transfer.events consumer group.
func (s *BalanceQueryService) HandleTransferEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TransferCompleted {
		return nil
	}
	if s.views == nil {
		return nil
	}
	dataBytes, _ := json.Marshal(event.Data)
	var data events.TransferCompletedEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("failed to unmarshal transfer.completed event: %w", err)
	}
	s.views.Refresh(ctx, data.FromAccount)
	s.views.Refresh(ctx, data.ToAccount)
	log.Printf("Refreshed balance views for transfer %s", data.TransferID)
	return nil
}
