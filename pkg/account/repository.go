package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	FindByUser(ctx context.Context, userId int) ([]Account, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) FindByUser(ctx context.Context, userId int) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, name FROM account WHERE user_id = $1 ORDER BY id`, userId)
	if err != nil {
		log.Errorf("failed to query accounts of user %d: %v", userId, err)
		return nil, err
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.Id, &a.UserId, &a.Name); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
