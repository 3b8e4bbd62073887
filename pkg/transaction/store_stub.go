package transaction

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type StoreStub struct {
	mu           sync.Mutex
	transactions []Transaction
	// Calls counts SumAmount invocations.
	Calls int
	// Err is returned by SumAmount when set.
	Err error
}

func NewStoreStub() *StoreStub {
	return &StoreStub{}
}

func (s *StoreStub) Add(t Transaction) {
	s.transactions = append(s.transactions, t)
}

func (s *StoreStub) SumAmount(ctx context.Context, accountIds []int, categoryId int, from, to time.Time) (decimal.NullDecimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return decimal.NullDecimal{}, s.Err
	}
	sum := decimal.NullDecimal{}
	for _, t := range s.transactions {
		if !slices.Contains(accountIds, t.AccountId) {
			continue
		}
		if t.CategoryId == nil || *t.CategoryId != categoryId {
			continue
		}
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		sum.Decimal = sum.Decimal.Add(t.Amount)
		sum.Valid = true
	}
	return sum, nil
}

func (s *StoreStub) Reset() {
	s.transactions = nil
	s.Calls = 0
	s.Err = nil
}
