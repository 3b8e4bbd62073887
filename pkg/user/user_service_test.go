package user

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repo = NewStubUserRepository()
var service = NewUserService(repo)

func setup(t *testing.T) func() {
	t.Helper()
	return func() {
		repo.Reset()
	}
}

func TestUserServiceImpl_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("should generate uid when missing", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreateUser(ctx, User{Username: "alice"})

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, 1, created.Id)
		found, err := service.GetUserByUid(ctx, created.Uid)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)
	})

	t.Run("should keep a given uid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		created, err := service.CreateUser(ctx, User{Uid: "fixed", Username: "bob"})

		require.NoError(t, err)
		assert.Equal(t, "fixed", created.Uid)
	})

	t.Run("should reject payday outside the month", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		day := 32

		_, err := service.CreateUser(ctx, User{Username: "carol", PaydayDay: &day})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
		users, _ := service.GetAllUsers(ctx)
		assert.Empty(t, users)
	})
}

func TestUserServiceImpl_CurrentUser(t *testing.T) {
	t.Run("should return the user of the context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.CreateUser(context.Background(), User{Username: "alice"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		current, err := service.GetCurrentUser(ctx)

		require.NoError(t, err)
		assert.Equal(t, created.Id, current.Id)
	})

	t.Run("should fail without user in context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.GetCurrentUser(context.Background())

		assert.ErrorIs(t, err, ErrNoUser)
	})

	t.Run("should update the income of the current user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.CreateUser(context.Background(), User{Username: "alice"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		created.MonthlyIncome = decimal.NewNullDecimal(decimal.NewFromInt(5000))
		created.Id = 99
		_, err = service.UpdateUser(ctx, created)

		require.NoError(t, err)
		stored, err := service.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.True(t, stored.MonthlyIncome.Valid)
		assert.True(t, decimal.NewFromInt(5000).Equal(stored.MonthlyIncome.Decimal))
	})
}
