package bill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/category"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRepo = user.NewStubUserRepository()

var billRepo = NewRepositoryStub()

var clock = &utils.MockClock{}

var service Service

var ctx context.Context

func setup(t *testing.T) func() {
	clock.SetNow(time.Date(2025, 4, 28, 10, 0, 0, 0, time.UTC))
	categories := category.NewRepositoryStub(category.Category{Id: 1, Name: "Housing"}, category.Category{Id: 2, Name: "Utilities"})
	service = NewService(billRepo, userRepo, categories, clock)
	userId, err := userRepo.CreateUser(context.Background(), user.User{
		Username:      "alice",
		MonthlyIncome: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
	})
	require.NoError(t, err)
	ctx = user.WithUser(context.Background(), user.User{Id: userId, Username: "alice"})
	return func() {
		t.Log("Teardown after test")
		billRepo.Reset()
		userRepo.Reset()
	}
}

func create(t *testing.T, b Bill) Bill {
	created, err := service.Create(ctx, b)
	require.NoError(t, err)
	return created
}

func intPtr(i int) *int {
	return &i
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a bill with its category name", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		created := create(t, Bill{Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1, IsRecurring: true, CategoryId: intPtr(1)})

		assert.NotZero(t, created.Id)
		assert.Equal(t, "Housing", created.CategoryName)
	})

	t.Run("should reject an invalid due day", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		for _, dueDay := range []int{0, 32, -1} {
			_, err := service.Create(ctx, Bill{Name: "Rent", DueDay: dueDay})
			assert.ErrorIs(t, err, ErrInvalidDueDay)
		}
	})

	t.Run("should reject a bill without a name", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(ctx, Bill{DueDay: 3})

		assert.ErrorIs(t, err, ErrInvalidBill)
	})

	t.Run("should require an existing user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		ghost := user.WithUser(context.Background(), user.User{Id: 999})
		_, err := service.Create(ghost, Bill{Name: "Rent", DueDay: 1})

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestServiceImpl_Update(t *testing.T) {
	t.Run("should update the bill", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created := create(t, Bill{Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1})

		created.Amount = decimal.NewFromInt(950)
		updated, err := service.Update(ctx, created)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(950).Equal(updated.Amount))
	})

	t.Run("should return no bill when it does not exist", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		updated, err := service.Update(ctx, Bill{Id: 42, Name: "Rent", DueDay: 1})

		assert.ErrorIs(t, err, ErrBillNotFound)
		assert.Equal(t, Bill{}, updated)
	})

	t.Run("should return no bill when saving fails", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created := create(t, Bill{Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1})
		billRepo.FailUpdate[created.Id] = errors.New("db down")

		updated, err := service.Update(ctx, created)

		assert.Error(t, err)
		assert.Equal(t, Bill{}, updated)
	})
}

func TestServiceImpl_SetPaid(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	created := create(t, Bill{Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1})

	paid, err := service.SetPaid(ctx, created.Id, true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	unpaid, err := service.SetPaid(ctx, created.Id, false)
	require.NoError(t, err)
	assert.False(t, unpaid.IsPaid)

	_, err = service.SetPaid(ctx, 12345, true)
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestServiceImpl_DueAndUpcoming(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// today is April 28th
	rent := create(t, Bill{Name: "Rent", DueDay: 1, IsRecurring: true})
	power := create(t, Bill{Name: "Power", DueDay: 28})
	create(t, Bill{Name: "Paid phone", DueDay: 2, IsPaid: true})
	late := create(t, Bill{Name: "Insurance", DueDay: 15})
	gym := create(t, Bill{Name: "Gym", DueDay: 10})

	due, err := service.Due(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{rent.Id, power.Id, late.Id, gym.Id}, ids(due))

	upcoming, err := service.Upcoming(ctx, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{rent.Id, power.Id}, ids(upcoming))

	_, err = service.Upcoming(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidBill)
}

func TestServiceImpl_ByCategory(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	rent := create(t, Bill{Name: "Rent", DueDay: 1, CategoryId: intPtr(1)})
	misc := create(t, Bill{Name: "Misc", DueDay: 3})

	grouped, err := service.ByCategory(ctx)

	require.NoError(t, err)
	assert.Len(t, grouped, 3)
	assert.Equal(t, []int{rent.Id}, ids(grouped["Housing"]))
	assert.Empty(t, grouped["Utilities"])
	assert.Equal(t, []int{misc.Id}, ids(grouped[UncategorizedName]))
}

func TestServiceImpl_MonthlyTotal(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	create(t, Bill{Name: "Rent", Amount: decimal.RequireFromString("900.50"), DueDay: 1, IsRecurring: true, IsPaid: true})
	create(t, Bill{Name: "Phone", Amount: decimal.RequireFromString("49.50"), DueDay: 5, IsRecurring: true})
	create(t, Bill{Name: "Gift", Amount: decimal.NewFromInt(100), DueDay: 9})

	total, err := service.MonthlyTotal(ctx)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(950).Equal(total), "total %s", total)
}

func TestServiceImpl_RemainingIncome(t *testing.T) {
	t.Run("should subtract unpaid bills", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		create(t, Bill{Name: "Rent", Amount: decimal.NewFromInt(1000), DueDay: 1})
		create(t, Bill{Name: "Phone", Amount: decimal.NewFromInt(200), DueDay: 5})
		create(t, Bill{Name: "Paid", Amount: decimal.NewFromInt(300), DueDay: 5, IsPaid: true})

		remaining, err := service.RemainingIncome(ctx)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(3800).Equal(remaining), "remaining %s", remaining)
	})

	t.Run("should return the income when nothing is unpaid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		remaining, err := service.RemainingIncome(ctx)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5000).Equal(remaining))
	})

	t.Run("should fail for an unknown user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		ghost := user.WithUser(context.Background(), user.User{Id: 999})
		_, err := service.RemainingIncome(ghost)

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func ids(bills []Bill) []int {
	result := make([]int, 0, len(bills))
	for _, b := range bills {
		result = append(result, b.Id)
	}
	return result
}
