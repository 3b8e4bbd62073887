package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finman/finman/internal/batch"
	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/account"
	"github.com/finman/finman/pkg/transaction"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type monitorFixture struct {
	users        *user.StubUserRepository
	accounts     *account.RepositoryStub
	budgets      *StubBudgetRepo
	transactions *transaction.StoreStub
	dispatcher   *DispatcherStub
	clock        *utils.MockClock
	monitor      *Monitor
}

func setupMonitor() monitorFixture {
	f := monitorFixture{
		users:        user.NewStubUserRepository(),
		accounts:     account.NewRepositoryStub(),
		budgets:      NewStubBudgetRepo(),
		transactions: transaction.NewStoreStub(),
		dispatcher:   NewDispatcherStub(),
		clock:        &utils.MockClock{FixedNow: time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)},
	}
	f.monitor = NewMonitor(f.users, f.accounts, f.budgets, NewSpendingAggregator(f.transactions), f.dispatcher, f.clock)
	return f
}

func (f monitorFixture) addUser(t *testing.T, name string, accountId int) user.User {
	ctx := context.Background()
	id, err := f.users.CreateUser(ctx, user.User{Username: name, Email: name + "@example.com"})
	require.NoError(t, err)
	f.accounts.Add(account.Account{Id: accountId, UserId: id, Name: name + " checking"})
	u, err := f.users.GetUser(ctx, id)
	require.NoError(t, err)
	return u
}

// panickingFinder panics while loading the budgets of one user.
type panickingFinder struct {
	*StubBudgetRepo
	userId int
}

func (p panickingFinder) FindActive(ctx context.Context, userId int, day time.Time) ([]Budget, error) {
	if userId == p.userId {
		panic("corrupt budget row")
	}
	return p.StubBudgetRepo.FindActive(ctx, userId, day)
}

func (f monitorFixture) addBudget(t *testing.T, b Budget) Budget {
	id, err := f.budgets.Store(context.Background(), b)
	require.NoError(t, err)
	b.ID = id
	return b
}

func (f monitorFixture) spend(accountId, categoryId int, amount string, on time.Time) {
	f.transactions.Add(transaction.Transaction{
		AccountId:  accountId,
		CategoryId: intPtr(categoryId),
		Amount:     dec(amount).Neg(),
		Date:       on,
	})
}

func TestMonitor_CheckUser(t *testing.T) {
	ctx := context.Background()

	t.Run("should dispatch a warning when spending reaches the threshold", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		groceries := f.addBudget(t, Budget{
			UserId:           alice.Id,
			Name:             "Groceries",
			Amount:           dec("100"),
			CategoryId:       intPtr(5),
			CategoryName:     "Food",
			Period:           PeriodMonthly,
			StartDate:        date(2025, 1, 1),
			WarningThreshold: threshold("80"),
		})
		f.spend(10, 5, "50", date(2025, 3, 2))
		f.spend(10, 5, "30", date(2025, 3, 11))
		// previous month does not count
		f.spend(10, 5, "500", date(2025, 2, 27))

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		require.Len(t, report.Outcomes, 1)
		assert.Equal(t, batch.StatusSucceeded, report.Outcomes[0].Status)
		assert.Equal(t, ActionWarningDispatched, report.Outcomes[0].Action)
		require.Len(t, f.dispatcher.Warnings, 1)
		w := f.dispatcher.Warnings[0]
		assert.Equal(t, alice.Id, w.User.Id)
		assert.Equal(t, groceries.ID, w.Budget.ID)
		assert.True(t, dec("80").Equal(w.Spending), "spending %s", w.Spending)
		assert.True(t, dec("0.80").Equal(w.Ratio), "ratio %s", w.Ratio)
		assert.Equal(t, "monthly", w.PeriodLabel)
		assert.Equal(t, "Food", w.CategoryName)
	})

	t.Run("should not dispatch below the threshold", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		f.addBudget(t, Budget{
			UserId:           alice.Id,
			Name:             "Fuel",
			Amount:           dec("200"),
			CategoryId:       intPtr(6),
			Period:           PeriodWeekly,
			StartDate:        date(2025, 1, 1),
			WarningThreshold: threshold("90"),
		})
		f.spend(10, 6, "150", date(2025, 3, 11))

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		require.Len(t, report.Outcomes, 1)
		assert.Equal(t, batch.StatusSucceeded, report.Outcomes[0].Status)
		assert.Empty(t, report.Outcomes[0].Action)
		assert.Empty(t, f.dispatcher.Warnings)
	})

	t.Run("should skip budgets that cannot be evaluated", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		f.addBudget(t, Budget{UserId: alice.Id, Name: "No threshold", Amount: dec("10"), CategoryId: intPtr(5),
			Period: PeriodDaily, StartDate: date(2025, 1, 1)})
		f.addBudget(t, Budget{UserId: alice.Id, Name: "Zero amount", Amount: decimal.Zero, CategoryId: intPtr(5),
			Period: PeriodDaily, StartDate: date(2025, 1, 1), WarningThreshold: threshold("50")})
		f.spend(10, 5, "100", date(2025, 3, 12))

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		assert.Equal(t, 2, report.Count(batch.StatusSkipped))
		assert.Empty(t, f.dispatcher.Warnings)
	})

	t.Run("should ignore budgets that are not active today", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		f.addBudget(t, Budget{UserId: alice.Id, Name: "Expired", Amount: dec("10"), CategoryId: intPtr(5),
			Period: PeriodCustom, StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 31), WarningThreshold: threshold("10")})
		f.addBudget(t, Budget{UserId: alice.Id, Name: "Future", Amount: dec("10"), CategoryId: intPtr(5),
			Period: PeriodMonthly, StartDate: date(2025, 4, 1), WarningThreshold: threshold("10")})
		f.spend(10, 5, "100", date(2025, 1, 15))

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		assert.Empty(t, report.Outcomes)
		assert.Empty(t, f.dispatcher.Warnings)
	})

	t.Run("should keep evaluating siblings when one budget fails", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		failing := f.addBudget(t, Budget{UserId: alice.Id, Name: "Rent", Amount: dec("100"), CategoryId: intPtr(5),
			Period: PeriodMonthly, StartDate: date(2025, 1, 1), WarningThreshold: threshold("50")})
		healthy := f.addBudget(t, Budget{UserId: alice.Id, Name: "Food", Amount: dec("100"), CategoryId: intPtr(5),
			Period: PeriodMonthly, StartDate: date(2025, 1, 1), WarningThreshold: threshold("50")})
		f.spend(10, 5, "90", date(2025, 3, 3))
		f.dispatcher.Fail[failing.ID] = errors.New("broker unavailable")

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		require.Len(t, report.Outcomes, 2)
		failed := report.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, failing.ID, failed[0].Id)
		assert.ErrorContains(t, failed[0].Err, "broker unavailable")
		require.Len(t, f.dispatcher.Warnings, 1)
		assert.Equal(t, healthy.ID, f.dispatcher.Warnings[0].Budget.ID)
	})

	t.Run("should treat budgets without a category as zero spending", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		f.addBudget(t, Budget{UserId: alice.Id, Name: "Everything", Amount: dec("100"),
			Period: PeriodMonthly, StartDate: date(2025, 1, 1), WarningThreshold: threshold("0")})
		f.spend(10, 5, "90", date(2025, 3, 3))

		// when
		report := f.monitor.CheckUser(ctx, alice)

		// then
		require.Len(t, report.Outcomes, 1)
		assert.Equal(t, 0, f.transactions.Calls)
		// a zero threshold still warns on zero spending
		require.Len(t, f.dispatcher.Warnings, 1)
		assert.Equal(t, "all categories", f.dispatcher.Warnings[0].CategoryName)
	})
}

func TestMonitor_CheckAll(t *testing.T) {
	ctx := context.Background()

	t.Run("should isolate failures of one user from the others", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		bob := f.addUser(t, "bob", 20)
		carol := f.addUser(t, "carol", 30)
		for _, u := range []user.User{alice, bob, carol} {
			f.addBudget(t, Budget{UserId: u.Id, Name: "Food", Amount: dec("100"), CategoryId: intPtr(5),
				Period: PeriodMonthly, StartDate: date(2025, 1, 1), WarningThreshold: threshold("80")})
		}
		f.spend(10, 5, "85", date(2025, 3, 3))
		f.spend(30, 5, "95", date(2025, 3, 3))
		f.budgets.FailActive[bob.Id] = errors.New("timeout")

		// when
		report, err := f.monitor.CheckAll(ctx, 2)

		// then
		require.NoError(t, err)
		require.Len(t, report.Outcomes, 3)
		assert.Equal(t, 2, report.CountAction(ActionWarningDispatched))
		failed := report.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, bob.Id, failed[0].UserId)
		assert.Equal(t, "user", failed[0].Subject)
		assert.Len(t, f.dispatcher.Warnings, 2)
	})

	t.Run("should record a panic while loading a user as a failed user", func(t *testing.T) {
		// given
		f := setupMonitor()
		alice := f.addUser(t, "alice", 10)
		bob := f.addUser(t, "bob", 20)
		for _, u := range []user.User{alice, bob} {
			f.addBudget(t, Budget{UserId: u.Id, Name: "Food", Amount: dec("100"), CategoryId: intPtr(5),
				Period: PeriodMonthly, StartDate: date(2025, 1, 1), WarningThreshold: threshold("80")})
		}
		f.spend(20, 5, "90", date(2025, 3, 3))
		monitor := NewMonitor(f.users, f.accounts, panickingFinder{f.budgets, alice.Id},
			NewSpendingAggregator(f.transactions), f.dispatcher, f.clock)

		// when
		report, err := monitor.CheckAll(ctx, 2)

		// then
		require.NoError(t, err)
		failed := report.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, "user", failed[0].Subject)
		assert.Equal(t, alice.Id, failed[0].UserId)
		assert.Equal(t, 1, report.CountAction(ActionWarningDispatched))
		require.Len(t, f.dispatcher.Warnings, 1)
		assert.Equal(t, bob.Id, f.dispatcher.Warnings[0].User.Id)
	})

	t.Run("should fail when users cannot be listed", func(t *testing.T) {
		// given
		f := setupMonitor()
		f.users.FailGetAll = errors.New("db down")

		// when
		_, err := f.monitor.CheckAll(ctx, 4)

		// then
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("should stop scheduling users after cancellation", func(t *testing.T) {
		// given
		f := setupMonitor()
		f.addUser(t, "alice", 10)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		// when
		report, err := f.monitor.CheckAll(cancelled, 1)

		// then
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, report.Outcomes)
	})
}

func TestMonitor_CurrentSpending(t *testing.T) {
	f := setupMonitor()
	alice := f.addUser(t, "alice", 10)
	b := f.addBudget(t, Budget{UserId: alice.Id, Name: "Food", Amount: dec("100"), CategoryId: intPtr(5),
		Period: PeriodDaily, StartDate: date(2025, 1, 1)})
	f.spend(10, 5, "12.34", date(2025, 3, 12).Add(time.Hour))
	f.spend(10, 5, "99", date(2025, 3, 11))

	spent, w, err := f.monitor.CurrentSpending(context.Background(), b)

	require.NoError(t, err)
	assert.True(t, dec("12.34").Equal(spent), "spent %s", spent)
	assert.True(t, date(2025, 3, 12).Equal(w.Start))
}
