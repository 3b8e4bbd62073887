package budget

import (
	"context"
	"sort"
	"time"
)

type StubBudgetRepo struct {
	nextId int
	data   map[int]Budget
	// FailActive makes FindActive return the given error for the given user.
	FailActive map[int]error
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{data: map[int]Budget{}, FailActive: map[int]error{}}
}

func (s *StubBudgetRepo) Store(ctx context.Context, budget Budget) (int, error) {
	s.nextId++
	budget.ID = s.nextId
	s.data[budget.ID] = budget
	return budget.ID, nil
}

func (s *StubBudgetRepo) Get(ctx context.Context, userId int, id int) (Budget, error) {
	budget, ok := s.data[id]
	if !ok || budget.UserId != userId {
		return Budget{}, ErrBudgetNotFound
	}
	return budget, nil
}

func (s *StubBudgetRepo) FindByUser(ctx context.Context, userId int) ([]Budget, error) {
	budgets := make([]Budget, 0, len(s.data))
	for _, budget := range s.data {
		if budget.UserId == userId {
			budgets = append(budgets, budget)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

func (s *StubBudgetRepo) FindActive(ctx context.Context, userId int, day time.Time) ([]Budget, error) {
	if err := s.FailActive[userId]; err != nil {
		return nil, err
	}
	all, _ := s.FindByUser(ctx, userId)
	active := make([]Budget, 0, len(all))
	for _, budget := range all {
		if budget.IsActiveOn(day) {
			active = append(active, budget)
		}
	}
	return active, nil
}

func (s *StubBudgetRepo) Update(ctx context.Context, budget Budget) (bool, error) {
	existing, ok := s.data[budget.ID]
	if !ok || existing.UserId != budget.UserId {
		return false, nil
	}
	s.data[budget.ID] = budget
	return true, nil
}

func (s *StubBudgetRepo) Delete(ctx context.Context, userId int, budgetId int) (bool, error) {
	existing, ok := s.data[budgetId]
	if !ok || existing.UserId != userId {
		return false, nil
	}
	delete(s.data, budgetId)
	return true, nil
}

func (s *StubBudgetRepo) Reset() {
	s.nextId = 0
	s.data = map[int]Budget{}
	s.FailActive = map[int]error{}
}
