package category

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrCategoryNotFound = errors.New("category not found")

type Repository interface {
	GetAll(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int) (Category, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetAll(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM category ORDER BY name`)
	if err != nil {
		log.Errorf("failed to query categories: %v", err)
		return nil, err
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Id, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name FROM category WHERE id = $1`, id).Scan(&c.Id, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		log.Errorf("failed to get category %d: %v", id, err)
		return Category{}, err
	}
	return c, nil
}
