package repository

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/models"
	sharedredis "github.com/stutxi/paytm/internal/redis"
)

const balanceViewKeyPrefix = "balance:view:"

// BalanceReadRepository serves balance reads from a Redis view with the
// account store as fallback. Only committed balances ever enter the cache:
// it is warmed from store reads and refreshed after commits, and the
// transfer engine invalidates both sides synchronously before the caller
// sees the acknowledgement.
type BalanceReadRepository struct {
	store ledger.Store
	cache *sharedredis.ViewCache[models.BalanceView]
}

func NewBalanceReadRepository(store ledger.Store, redisClient *goredis.Client) *BalanceReadRepository {
	return &BalanceReadRepository{
		store: store,
		cache: sharedredis.NewViewCache[models.BalanceView](redisClient, 0),
	}
}

// GetByAccountNumber returns a BalanceView, trying Redis first then the store.
func (r *BalanceReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.BalanceView, error) {
	cacheKey := balanceViewKeyPrefix + accountNumber

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	account, err := r.store.GetAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	view := accountToBalanceView(account)
	r.cache.Set(ctx, cacheKey, view)
	return view, nil
}

// Invalidate removes the cached view for an account.
func (r *BalanceReadRepository) Invalidate(ctx context.Context, accountNumber string) {
	r.cache.Delete(ctx, balanceViewKeyPrefix+accountNumber)
}

// Refresh re-reads the committed balance from the store and re-warms the
// cache. Called by the transfer event subscriber.
func (r *BalanceReadRepository) Refresh(ctx context.Context, accountNumber string) {
	account, err := r.store.GetAccount(ctx, accountNumber)
	if err != nil {
		return
	}
	r.cache.Set(ctx, balanceViewKeyPrefix+accountNumber, accountToBalanceView(account))
}

func accountToBalanceView(a *ledger.Account) *models.BalanceView {
	return &models.BalanceView{
		AccountNumber: a.AccountNumber,
		Balance:       ledger.MinorUnitsToAmount(a.Balance),
		Currency:      a.Currency,
	}
}
