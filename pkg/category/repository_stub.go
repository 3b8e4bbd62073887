package category

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	categories map[int]Category
}

func NewRepositoryStub(categories ...Category) *RepositoryStub {
	s := &RepositoryStub{categories: map[int]Category{}}
	for _, c := range categories {
		s.categories[c.Id] = c
	}
	return s
}

func (s *RepositoryStub) GetAll(ctx context.Context) ([]Category, error) {
	result := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}
