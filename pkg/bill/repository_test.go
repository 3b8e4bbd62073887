//go:build integration

package bill

import (
	"context"
	"os"
	"testing"

	"github.com/finman/finman/internal/test_utils"
	"github.com/finman/finman/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *test_utils.TestDB

func TestMain(m *testing.M) {
	testDB = test_utils.StartDB()
	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	testDB.Reset(t)
	testDB.Exec(t, `INSERT INTO users (id, uid, username) VALUES (1, 'uid-1', 'alice'), (2, 'uid-2', 'bob')`)
	testDB.Exec(t, `INSERT INTO category (id, name) VALUES (1, 'Utilities')`)
	return context.Background(), NewRepository(testDB.Pool)
}

func storeBills(t *testing.T, repo Repository, bills ...Bill) []int {
	t.Helper()
	ids := make([]int, 0, len(bills))
	for _, b := range bills {
		id, err := repo.Store(context.Background(), b)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestRepositoryImpl_StoreAndFind(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	ids := storeBills(t, repo,
		Bill{UserId: 1, Name: "Internet", Amount: decimal.NewFromInt(40), DueDay: 20, IsRecurring: true, CategoryId: intPtr(1)},
		Bill{UserId: 1, Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1, IsRecurring: true},
		Bill{UserId: 2, Name: "Gym", Amount: decimal.NewFromInt(30), DueDay: 5},
	)

	// when
	bills, err := repo.FindByUser(ctx, 1)

	// then
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, ids[1], bills[0].Id, "ordered by due day")
	assert.Equal(t, "Utilities", bills[1].CategoryName)
	assert.Empty(t, bills[0].CategoryName)

	_, err = repo.Get(ctx, 1, ids[2])
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestRepositoryImpl_SumUnpaid(t *testing.T) {
	ctx, repo := setupTestRepository(t)

	t.Run("should be invalid without bills", func(t *testing.T) {
		sum, err := repo.SumUnpaid(ctx, 1)

		require.NoError(t, err)
		assert.False(t, sum.Valid)
	})

	t.Run("should sum only unpaid bills", func(t *testing.T) {
		storeBills(t, repo,
			Bill{UserId: 1, Name: "Internet", Amount: decimal.RequireFromString("40.50"), DueDay: 20},
			Bill{UserId: 1, Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1, IsPaid: true},
			Bill{UserId: 1, Name: "Phone", Amount: decimal.RequireFromString("19.50"), DueDay: 12},
		)

		sum, err := repo.SumUnpaid(ctx, 1)

		require.NoError(t, err)
		require.True(t, sum.Valid)
		assert.True(t, decimal.NewFromInt(60).Equal(sum.Decimal))
	})
}

func TestResetter_WithDatabase(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	users := user.NewUserRepo(testDB.Pool)
	ids := storeBills(t, repo,
		Bill{UserId: 1, Name: "Rent", Amount: decimal.NewFromInt(900), DueDay: 1, IsPaid: true, IsRecurring: true},
		Bill{UserId: 1, Name: "Concert", Amount: decimal.NewFromInt(80), DueDay: 9, IsPaid: true},
		Bill{UserId: 2, Name: "Gym", Amount: decimal.NewFromInt(30), DueDay: 5, IsPaid: true, IsRecurring: true},
	)
	resetter := NewResetter(users, repo)

	// when
	report, err := resetter.ResetAll(ctx, 2)

	// then
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, 2, report.CountAction(ActionReset))
	rent, _ := repo.Get(ctx, 1, ids[0])
	concert, _ := repo.Get(ctx, 1, ids[1])
	gym, _ := repo.Get(ctx, 2, ids[2])
	assert.False(t, rent.IsPaid)
	assert.True(t, concert.IsPaid)
	assert.False(t, gym.IsPaid)
}
