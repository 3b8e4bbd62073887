package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Store interface {
	// SumAmount returns the signed sum of the amounts of transactions booked on one of accountIds,
	// in categoryId, with a date within [from, to]. The result is invalid when no transaction matches.
	SumAmount(ctx context.Context, accountIds []int, categoryId int, from, to time.Time) (decimal.NullDecimal, error)
}

type StoreImpl struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *StoreImpl {
	return &StoreImpl{db: db}
}

func (s *StoreImpl) SumAmount(ctx context.Context, accountIds []int, categoryId int, from, to time.Time) (decimal.NullDecimal, error) {
	query := `SELECT SUM(amount) FROM transaction
			  WHERE account_id = ANY($1) AND category_id = $2 AND date BETWEEN $3 AND $4`

	var sum decimal.NullDecimal
	err := s.db.QueryRow(ctx, query, accountIds, categoryId, from, to).Scan(&sum)
	if err != nil {
		err := fmt.Errorf("could not sum transactions: %w", err)
		log.Error(err)
		return decimal.NullDecimal{}, err
	}
	return sum, nil
}
