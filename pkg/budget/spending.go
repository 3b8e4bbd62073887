package budget

import (
	"context"

	"github.com/finman/finman/pkg/transaction"
	"github.com/shopspring/decimal"
)

type SpendingAggregator struct {
	store transaction.Store
}

func NewSpendingAggregator(store transaction.Store) *SpendingAggregator {
	return &SpendingAggregator{store: store}
}

// Sum returns the signed sum of the transactions in the window. It never returns an absent value:
// no accounts, no category or no matching rows all yield zero.
func (a *SpendingAggregator) Sum(ctx context.Context, accountIds []int, categoryId *int, w Window) (decimal.Decimal, error) {
	if len(accountIds) == 0 || categoryId == nil {
		return decimal.Zero, nil
	}
	sum, err := a.store.SumAmount(ctx, accountIds, *categoryId, w.Start, w.End)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
