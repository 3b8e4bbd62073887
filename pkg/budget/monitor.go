package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/finman/finman/internal/batch"
	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/account"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const ActionWarningDispatched = "warning dispatched"

// Warning is handed to the Dispatcher when spending reaches a budget's threshold.
type Warning struct {
	User     user.User
	Budget   Budget
	Spending decimal.Decimal
	Ratio    decimal.Decimal
	// PeriodLabel is the lower-case period name, e.g. "monthly".
	PeriodLabel string
	// CategoryName falls back to "all categories" for budgets without a category.
	CategoryName string
}

type Dispatcher interface {
	DispatchWarning(ctx context.Context, warning Warning) error
}

type UserLister interface {
	GetAllUsers(ctx context.Context) ([]user.User, error)
}

type AccountLister interface {
	FindByUser(ctx context.Context, userId int) ([]account.Account, error)
}

type ActiveBudgetFinder interface {
	FindActive(ctx context.Context, userId int, day time.Time) ([]Budget, error)
}

type Monitor struct {
	users      UserLister
	accounts   AccountLister
	budgets    ActiveBudgetFinder
	aggregator *SpendingAggregator
	dispatcher Dispatcher
	clock      utils.Clock
}

func NewMonitor(
	users UserLister,
	accounts AccountLister,
	budgets ActiveBudgetFinder,
	aggregator *SpendingAggregator,
	dispatcher Dispatcher,
	clock utils.Clock,
) *Monitor {
	return &Monitor{
		users:      users,
		accounts:   accounts,
		budgets:    budgets,
		aggregator: aggregator,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// CheckAll evaluates the active budgets of every user, fanning users out over at most workers goroutines.
// The returned error is only set when the users could not be listed or ctx was cancelled;
// per budget failures are part of the report.
func (m *Monitor) CheckAll(ctx context.Context, workers int) (batch.Report, error) {
	users, err := m.users.GetAllUsers(ctx)
	if err != nil {
		return batch.Report{}, fmt.Errorf("failed to list users: %w", err)
	}
	report, err := batch.ForEach(ctx, users, workers, userOutcome, m.CheckUser)
	log.WithFields(log.Fields{
		"users":    len(users),
		"warnings": report.CountAction(ActionWarningDispatched),
		"skipped":  report.Count(batch.StatusSkipped),
		"failed":   report.Count(batch.StatusFailed),
	}).Info("budget check finished")
	return report, err
}

func userOutcome(u user.User) batch.Outcome {
	return batch.Outcome{Subject: "user", Id: u.Id, UserId: u.Id}
}

// CheckUser evaluates the budgets of u that are active today, one after the other.
func (m *Monitor) CheckUser(ctx context.Context, u user.User) batch.Report {
	var report batch.Report
	now := m.clock.Now()

	accounts, err := m.accounts.FindByUser(ctx, u.Id)
	if err != nil {
		log.Errorf("failed to load accounts of user %d: %v", u.Id, err)
		report.Add(batch.Outcome{Subject: "user", Id: u.Id, UserId: u.Id, Status: batch.StatusFailed, Err: err})
		return report
	}
	budgets, err := m.budgets.FindActive(ctx, u.Id, now)
	if err != nil {
		log.Errorf("failed to load active budgets of user %d: %v", u.Id, err)
		report.Add(batch.Outcome{Subject: "user", Id: u.Id, UserId: u.Id, Status: batch.StatusFailed, Err: err})
		return report
	}
	accountIds := account.Ids(accounts)

	for _, b := range budgets {
		outcome := batch.Outcome{Subject: "budget", Id: b.ID, UserId: u.Id, Status: batch.StatusSucceeded}
		err := batch.Attempt(func() error {
			evaluation, spending, err := m.evaluate(ctx, accountIds, b, now)
			if err != nil {
				return err
			}
			if evaluation.Skipped {
				outcome.Status = batch.StatusSkipped
				return nil
			}
			if !evaluation.Warn {
				return nil
			}
			warning := Warning{
				User:         u,
				Budget:       b,
				Spending:     spending,
				Ratio:        evaluation.Ratio,
				PeriodLabel:  b.Period.Label(),
				CategoryName: b.CategoryLabel(),
			}
			if err := m.dispatcher.DispatchWarning(ctx, warning); err != nil {
				return fmt.Errorf("failed to dispatch warning: %w", err)
			}
			outcome.Action = ActionWarningDispatched
			return nil
		})
		if err != nil {
			log.WithFields(log.Fields{"user": u.Id, "budget": b.ID}).Errorf("budget check failed: %v", err)
			outcome.Status = batch.StatusFailed
			outcome.Err = err
		}
		report.Add(outcome)
	}
	return report
}

// CurrentSpending returns the positive amount spent in the budget's current window.
func (m *Monitor) CurrentSpending(ctx context.Context, b Budget) (decimal.Decimal, Window, error) {
	accounts, err := m.accounts.FindByUser(ctx, b.UserId)
	if err != nil {
		return decimal.Zero, Window{}, err
	}
	now := m.clock.Now()
	w := ResolveWindow(b.Period, b.StartDate, b.EndDate, now)
	sum, err := m.aggregator.Sum(ctx, account.Ids(accounts), b.CategoryId, w)
	if err != nil {
		return decimal.Zero, Window{}, err
	}
	return sum.Neg(), w, nil
}

func (m *Monitor) evaluate(ctx context.Context, accountIds []int, b Budget, now time.Time) (Evaluation, decimal.Decimal, error) {
	w := ResolveWindow(b.Period, b.StartDate, b.EndDate, now)
	sum, err := m.aggregator.Sum(ctx, accountIds, b.CategoryId, w)
	if err != nil {
		return Evaluation{}, decimal.Zero, fmt.Errorf("failed to aggregate spending: %w", err)
	}
	// expenses are stored as negative amounts
	spending := sum.Neg()
	return EvaluateThreshold(spending, b.Amount, b.WarningThreshold), spending, nil
}
