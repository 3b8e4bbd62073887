package user

import (
	"context"
	"sort"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
	// FailGetAll makes GetAllUsers return the given error.
	FailGetAll error
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (int, error) {
	for _, existing := range s.data {
		if (user.Uid != "" && existing.Uid == user.Uid) || (user.Username != "" && existing.Username == user.Username) {
			return 0, ErrUserAlreadyExists
		}
	}
	s.nextId++
	user.Id = s.nextId
	s.data[s.nextId] = user
	return s.nextId, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	if _, ok := s.data[user.Id]; !ok {
		return User{}, ErrUserNotFound
	}
	s.data[user.Id] = user
	return user, nil
}

func (s *StubUserRepository) GetAllUsers(ctx context.Context) ([]User, error) {
	if s.FailGetAll != nil {
		return nil, s.FailGetAll
	}
	users := make([]User, 0, len(s.data))
	for _, user := range s.data {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (s *StubUserRepository) Reset() {
	s.nextId = 0
	s.data = map[int]User{}
	s.FailGetAll = nil
}
