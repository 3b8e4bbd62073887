package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUserDataInvalid = errors.New("invalid user data")

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Uid == "" {
		user.Uid = uuid.NewString()
	}
	if user.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrUserDataInvalid)
	}
	if err := validateIncome(user); err != nil {
		return User{}, err
	}
	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	current, err := u.repo.GetUser(ctx, userId)
	if err != nil {
		return User{}, err
	}
	if err := validateIncome(user); err != nil {
		return User{}, err
	}
	current.Email = user.Email
	current.MonthlyIncome = user.MonthlyIncome
	current.PaydayDay = user.PaydayDay
	return u.repo.UpdateUser(ctx, current)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

func validateIncome(user User) error {
	if user.MonthlyIncome.Valid && user.MonthlyIncome.Decimal.IsNegative() {
		return fmt.Errorf("%w: monthly income must not be negative", ErrUserDataInvalid)
	}
	if user.PaydayDay != nil && (*user.PaydayDay < 1 || *user.PaydayDay > 31) {
		return fmt.Errorf("%w: payday day %d", ErrUserDataInvalid, *user.PaydayDay)
	}
	return nil
}
