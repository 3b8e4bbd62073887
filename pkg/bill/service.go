package bill

import (
	"context"
	"errors"
	"fmt"

	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const UncategorizedName = "Uncategorized"

var (
	ErrInvalidDueDay = errors.New("due day must be between 1 and 31")
	ErrInvalidBill   = errors.New("invalid bill")
)

type Service interface {
	GetAll(ctx context.Context) ([]Bill, error)
	Get(ctx context.Context, id int) (Bill, error)
	Create(ctx context.Context, bill Bill) (Bill, error)
	Update(ctx context.Context, bill Bill) (Bill, error)
	Delete(ctx context.Context, id int) error
	SetPaid(ctx context.Context, id int, paid bool) (Bill, error)
	Due(ctx context.Context) ([]Bill, error)
	Upcoming(ctx context.Context, days int) ([]Bill, error)
	ByCategory(ctx context.Context) (map[string][]Bill, error)
	MonthlyTotal(ctx context.Context) (decimal.Decimal, error)
	RemainingIncome(ctx context.Context) (decimal.Decimal, error)
}

type UserGetter interface {
	GetUser(ctx context.Context, id int) (user.User, error)
}

type ServiceImpl struct {
	repo       Repository
	users      UserGetter
	categories category.Repository
	clock      utils.Clock
}

func NewService(repo Repository, users UserGetter, categories category.Repository, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, users: users, categories: categories, clock: clock}
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]Bill, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindByUser(ctx, userId)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Bill, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Bill{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) Create(ctx context.Context, bill Bill) (Bill, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Bill{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.users.GetUser(ctx, userId); err != nil {
		return Bill{}, err
	}
	bill.UserId = userId
	if err := s.validate(ctx, &bill); err != nil {
		return Bill{}, err
	}

	id, err := s.repo.Store(ctx, bill)
	if err != nil {
		return Bill{}, err
	}
	bill.Id = id
	return bill, nil
}

func (s *ServiceImpl) Update(ctx context.Context, bill Bill) (Bill, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Bill{}, fmt.Errorf("failed to get current user: %w", err)
	}
	bill.UserId = userId
	if err := s.validate(ctx, &bill); err != nil {
		return Bill{}, err
	}
	if err := s.save(ctx, bill); err != nil {
		return Bill{}, err
	}
	return bill, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("bill not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return ErrBillNotFound
	}
	return nil
}

func (s *ServiceImpl) SetPaid(ctx context.Context, id int, paid bool) (Bill, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	bill.IsPaid = paid
	return bill, s.save(ctx, bill)
}

func (s *ServiceImpl) Due(ctx context.Context) ([]Bill, error) {
	return s.filter(ctx, func(b Bill) bool {
		return IsDue(b, s.clock.Now())
	})
}

func (s *ServiceImpl) Upcoming(ctx context.Context, days int) ([]Bill, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidBill)
	}
	return s.filter(ctx, func(b Bill) bool {
		return IsUpcoming(b, s.clock.Now(), days)
	})
}

// ByCategory groups the bills of the current user by category name. Every catalog category is present,
// bills without a category are listed under Uncategorized.
func (s *ServiceImpl) ByCategory(ctx context.Context) (map[string][]Bill, error) {
	bills, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]Bill, len(categories)+1)
	for _, c := range categories {
		grouped[c.Name] = []Bill{}
	}
	grouped[UncategorizedName] = []Bill{}
	for _, b := range bills {
		name := UncategorizedName
		if b.CategoryId != nil && b.CategoryName != "" {
			name = b.CategoryName
		}
		grouped[name] = append(grouped[name], b)
	}
	return grouped, nil
}

// MonthlyTotal sums the amounts of recurring bills regardless of their payment state.
func (s *ServiceImpl) MonthlyTotal(ctx context.Context) (decimal.Decimal, error) {
	bills, err := s.GetAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range bills {
		if b.IsRecurring {
			total = total.Add(b.Amount)
		}
	}
	return total, nil
}

func (s *ServiceImpl) RemainingIncome(ctx context.Context) (decimal.Decimal, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get current user: %w", err)
	}
	u, err := s.users.GetUser(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	unpaid, err := s.repo.SumUnpaid(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	return RemainingIncome(u.MonthlyIncome, unpaid), nil
}

func (s *ServiceImpl) filter(ctx context.Context, keep func(Bill) bool) ([]Bill, error) {
	bills, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if keep(b) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *ServiceImpl) save(ctx context.Context, bill Bill) error {
	updated, err := s.repo.Update(ctx, bill)
	if err != nil {
		return err
	}
	if !updated {
		log.Warnf("bill not updated, probably because it does not exist (%d) or the user (%d) is not the owner", bill.Id, bill.UserId)
		return ErrBillNotFound
	}
	return nil
}

func (s *ServiceImpl) validate(ctx context.Context, bill *Bill) error {
	if bill.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBill)
	}
	if bill.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidBill)
	}
	if bill.DueDay < 1 || bill.DueDay > 31 {
		return fmt.Errorf("%w: got %d", ErrInvalidDueDay, bill.DueDay)
	}
	bill.CategoryName = ""
	if bill.CategoryId != nil {
		c, err := s.categories.Get(ctx, *bill.CategoryId)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBill, err)
		}
		bill.CategoryName = c.Name
	}
	return nil
}
