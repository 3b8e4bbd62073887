package bill

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	mu     sync.Mutex
	nextId int
	data   map[int]Bill
	// FailUpdate makes Update return the given error for the given bill.
	FailUpdate map[int]error
	// FailFind makes FindByUser return the given error for the given user.
	FailFind map[int]error
	// Updates counts successful Update calls.
	Updates int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[int]Bill{}, FailUpdate: map[int]error{}, FailFind: map[int]error{}}
}

func (s *RepositoryStub) Store(ctx context.Context, bill Bill) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	bill.Id = s.nextId
	s.data[bill.Id] = bill
	return bill.Id, nil
}

func (s *RepositoryStub) Get(ctx context.Context, userId int, id int) (Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.data[id]
	if !ok || bill.UserId != userId {
		return Bill{}, ErrBillNotFound
	}
	return bill, nil
}

func (s *RepositoryStub) FindByUser(ctx context.Context, userId int) ([]Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailFind[userId]; err != nil {
		return nil, err
	}
	bills := make([]Bill, 0)
	for _, bill := range s.data {
		if bill.UserId == userId {
			bills = append(bills, bill)
		}
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].Id < bills[j].Id })
	return bills, nil
}

func (s *RepositoryStub) Update(ctx context.Context, bill Bill) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailUpdate[bill.Id]; err != nil {
		return false, err
	}
	existing, ok := s.data[bill.Id]
	if !ok || existing.UserId != bill.UserId {
		return false, nil
	}
	s.data[bill.Id] = bill
	s.Updates++
	return true, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, userId int, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[id]
	if !ok || existing.UserId != userId {
		return false, nil
	}
	delete(s.data, id)
	return true, nil
}

func (s *RepositoryStub) SumUnpaid(ctx context.Context, userId int) (decimal.NullDecimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.NullDecimal{}
	for _, bill := range s.data {
		if bill.UserId == userId && !bill.IsPaid {
			sum.Decimal = sum.Decimal.Add(bill.Amount)
			sum.Valid = true
		}
	}
	return sum, nil
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.data = map[int]Bill{}
	s.FailUpdate = map[int]error{}
	s.FailFind = map[int]error{}
	s.Updates = 0
}
