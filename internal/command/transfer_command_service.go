package command

import (
	"context"
	"log"

	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/events"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/models"
	"github.com/stutxi/paytm/internal/utils"
)

// EventPublisher is the slice of the events publisher the engine needs.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// BalanceViews is the slice of the balance read model the engine needs to
// keep reads consistent with commits.
type BalanceViews interface {
	Invalidate(ctx context.Context, accountNumber string)
}

// TransferCommandService is the transfer engine. It validates a request
// before touching the store, then delegates the entire mutation to the
// store's single atomic transfer primitive. It never reads a balance,
// decides, and writes it back in separate steps.
type TransferCommandService struct {
	store     ledger.Store
	views     BalanceViews
	publisher EventPublisher
}

func NewTransferCommandService(store ledger.Store, views BalanceViews, publisher EventPublisher) *TransferCommandService {
	return &TransferCommandService{
		store:     store,
		views:     views,
		publisher: publisher,
	}
}

// Transfer executes one transfer end-to-end. Every failure path returns one
// of the ledger sentinel errors with no observable balance change.
func (s *TransferCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
	amount, err := ledger.AmountToMinorUnits(cmd.Amount)
	if err != nil {
		return nil, err
	}
	if cmd.ToAccount == "" || !utils.ValidateAccountNumber(cmd.ToAccount) {
		return nil, ledger.ErrInvalidDestination
	}
	if cmd.ToAccount == cmd.FromAccount {
		return nil, ledger.ErrInvalidDestination
	}

	transfer, err := s.store.Transfer(ctx, cmd.FromAccount, cmd.ToAccount, amount, cmd.IdempotencyKey, cmd.Reference)
	if err != nil {
		return nil, err
	}

	if !transfer.Replayed {
		// Drop both cached views before acknowledging, so no caller can read
		// a pre-transfer balance after seeing the transfer succeed.
		if s.views != nil {
			s.views.Invalidate(ctx, transfer.FromAccount)
			s.views.Invalidate(ctx, transfer.ToAccount)
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, events.TransferEventsStream, events.TransferCompleted, events.TransferCompletedEvent{
				TransferID:  transfer.ID,
				FromAccount: transfer.FromAccount,
				ToAccount:   transfer.ToAccount,
				Amount:      ledger.MinorUnitsToAmount(transfer.Amount),
				OccurredAt:  transfer.CreatedAt,
			}); err != nil {
				log.Printf("Failed to publish transfer.completed event: %v", err)
			}
		}
	}

	return transferToView(transfer), nil
}

// transferToView converts the ledger record to the API view model.
func transferToView(t *ledger.Transfer) *models.TransferView {
	return &models.TransferView{
		ID:          t.ID,
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
		Amount:      ledger.MinorUnitsToAmount(t.Amount),
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
	}
}
