package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidBudget = errors.New("invalid budget")

type BudgetService interface {
	GetAll(ctx context.Context) ([]Budget, error)
	Get(ctx context.Context, id int) (Budget, error)
	Create(ctx context.Context, budget Budget) (Budget, error)
	Update(ctx context.Context, budget Budget) (Budget, error)
	Delete(ctx context.Context, id int) error
	CurrentSpending(ctx context.Context, id int) (Spending, error)
}

// Spending is the state of a budget in its current window.
type Spending struct {
	Budget Budget
	Window Window
	Spent  decimal.Decimal
	// Ratio is Spent / Amount rounded to two decimal places, zero when the amount is not positive.
	Ratio     decimal.Decimal
	Remaining decimal.Decimal
	Warn      bool
}

type SpendingReader interface {
	CurrentSpending(ctx context.Context, b Budget) (decimal.Decimal, Window, error)
}

type BudgetServiceImpl struct {
	repo       BudgetRepo
	categories category.Repository
	spending   SpendingReader
}

func NewBudgetServiceImpl(repo BudgetRepo, categories category.Repository, spending SpendingReader) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, categories: categories, spending: spending}
}

func (s *BudgetServiceImpl) GetAll(ctx context.Context) ([]Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindByUser(ctx, userId)
}

func (s *BudgetServiceImpl) Get(ctx context.Context, id int) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *BudgetServiceImpl) Create(ctx context.Context, budget Budget) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	budget.UserId = userId
	if err := s.validate(ctx, &budget); err != nil {
		return Budget{}, err
	}

	id, err := s.repo.Store(ctx, budget)
	if err != nil {
		return Budget{}, err
	}
	budget.ID = id
	return budget, nil
}

func (s *BudgetServiceImpl) Update(ctx context.Context, budget Budget) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	budget.UserId = userId
	if err := s.validate(ctx, &budget); err != nil {
		return Budget{}, err
	}

	updated, err := s.repo.Update(ctx, budget)
	if err != nil {
		return Budget{}, err
	}
	if !updated {
		log.Warnf("budget not updated, probably because it does not exist (%d) or the user (%d) is not the owner", budget.ID, userId)
		return Budget{}, ErrBudgetNotFound
	}
	return budget, nil
}

func (s *BudgetServiceImpl) Delete(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("budget not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return ErrBudgetNotFound
	}
	return nil
}

func (s *BudgetServiceImpl) CurrentSpending(ctx context.Context, id int) (Spending, error) {
	budget, err := s.Get(ctx, id)
	if err != nil {
		return Spending{}, err
	}
	spent, window, err := s.spending.CurrentSpending(ctx, budget)
	if err != nil {
		return Spending{}, fmt.Errorf("failed to calculate spending of budget %d: %w", id, err)
	}
	evaluation := EvaluateThreshold(spent, budget.Amount, budget.WarningThreshold)
	ratio := evaluation.Ratio
	if evaluation.Skipped && budget.Amount.IsPositive() {
		ratio = spent.DivRound(budget.Amount, 2)
	}
	return Spending{
		Budget:    budget,
		Window:    window,
		Spent:     spent,
		Ratio:     ratio,
		Remaining: budget.Amount.Sub(spent),
		Warn:      evaluation.Warn,
	}, nil
}

// validate rejects budgets that the monitor could never evaluate and resolves the category name.
func (s *BudgetServiceImpl) validate(ctx context.Context, budget *Budget) error {
	if budget.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBudget)
	}
	if !budget.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBudget)
	}
	period, err := ParsePeriod(string(budget.Period))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	budget.Period = period
	if budget.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidBudget)
	}
	if !budget.EndDate.IsZero() && dateOf(budget.EndDate).Before(dateOf(budget.StartDate)) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidBudget)
	}
	if budget.WarningThreshold.Valid {
		t := budget.WarningThreshold.Decimal
		if t.IsNegative() || t.GreaterThan(hundred) {
			return fmt.Errorf("%w: warning threshold must be between 0 and 100", ErrInvalidBudget)
		}
	}
	budget.CategoryName = ""
	if budget.CategoryId != nil {
		c, err := s.categories.Get(ctx, *budget.CategoryId)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
		}
		budget.CategoryName = c.Name
	}
	return nil
}
