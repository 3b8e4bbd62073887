package notification

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu   sync.Mutex
	data []Notification
	// Err is returned by Store when set.
	Err error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (s *RepositoryStub) Store(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.data = append(s.data, n)
	return nil
}

func (s *RepositoryStub) FindByUser(ctx context.Context, userId int, unreadOnly bool) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Notification, 0)
	for _, n := range s.data {
		if n.UserId == userId && (!unreadOnly || !n.IsRead) {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].SentAt.After(result[j].SentAt) })
	return result, nil
}

func (s *RepositoryStub) MarkRead(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.data {
		if n.Id == id && n.UserId == userId {
			s.data[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *RepositoryStub) MarkAllRead(ctx context.Context, userId int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for i, n := range s.data {
		if n.UserId == userId && !n.IsRead {
			s.data[i].IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.Err = nil
}
