package account

import "context"

type RepositoryStub struct {
	byUser map[int][]Account
	// Fail makes FindByUser return the given error for the given user.
	Fail map[int]error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{byUser: map[int][]Account{}, Fail: map[int]error{}}
}

func (s *RepositoryStub) Add(a Account) {
	s.byUser[a.UserId] = append(s.byUser[a.UserId], a)
}

func (s *RepositoryStub) FindByUser(ctx context.Context, userId int) ([]Account, error) {
	if err := s.Fail[userId]; err != nil {
		return nil, err
	}
	return s.byUser[userId], nil
}

func (s *RepositoryStub) Reset() {
	s.byUser = map[int][]Account{}
	s.Fail = map[int]error{}
}
