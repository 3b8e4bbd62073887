package bill

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrBillNotFound = errors.New("bill not found")

type Repository interface {
	Store(ctx context.Context, bill Bill) (int, error)
	Get(ctx context.Context, userId int, id int) (Bill, error)
	FindByUser(ctx context.Context, userId int) ([]Bill, error)
	Update(ctx context.Context, bill Bill) (bool, error)
	Delete(ctx context.Context, userId int, id int) (bool, error)
	// SumUnpaid returns the total of the user's unpaid bills, invalid when there are none.
	SumUnpaid(ctx context.Context, userId int) (decimal.NullDecimal, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const billSelect = `SELECT b.id, b.user_id, b.name, b.amount, b.due_day, b.is_paid, b.is_recurring, b.category_id, c.name
FROM bill b
LEFT JOIN category c ON c.id = b.category_id`

func (r *RepositoryImpl) Store(ctx context.Context, bill Bill) (int, error) {
	query := `INSERT INTO bill (user_id, name, amount, due_day, is_paid, is_recurring, category_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query,
		bill.UserId,
		bill.Name,
		bill.Amount,
		bill.DueDay,
		bill.IsPaid,
		bill.IsRecurring,
		bill.CategoryId,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store bill: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id int) (Bill, error) {
	bill, err := scanBill(r.db.QueryRow(ctx, billSelect+` WHERE b.user_id = $1 AND b.id = $2`, userId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	if err != nil {
		log.Errorf("could not get bill %d: %v", id, err)
		return Bill{}, err
	}
	return bill, nil
}

func (r *RepositoryImpl) FindByUser(ctx context.Context, userId int) ([]Bill, error) {
	rows, err := r.db.Query(ctx, billSelect+` WHERE b.user_id = $1 ORDER BY b.due_day, b.id`, userId)
	if err != nil {
		err := fmt.Errorf("could not query bills: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	bills := make([]Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, bill Bill) (bool, error) {
	query := `UPDATE bill SET name = $1, amount = $2, due_day = $3, is_paid = $4, is_recurring = $5, category_id = $6
			  WHERE id = $7 AND user_id = $8`
	tag, err := r.db.Exec(ctx, query,
		bill.Name,
		bill.Amount,
		bill.DueDay,
		bill.IsPaid,
		bill.IsRecurring,
		bill.CategoryId,
		bill.Id,
		bill.UserId,
	)
	if err != nil {
		err := fmt.Errorf("could not update bill %d: %w", bill.Id, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM bill WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not delete bill %d: %w", id, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) SumUnpaid(ctx context.Context, userId int) (decimal.NullDecimal, error) {
	var sum decimal.NullDecimal
	err := r.db.QueryRow(ctx, `SELECT SUM(amount) FROM bill WHERE user_id = $1 AND is_paid = FALSE`, userId).Scan(&sum)
	if err != nil {
		err := fmt.Errorf("could not sum unpaid bills: %w", err)
		log.Error(err)
		return decimal.NullDecimal{}, err
	}
	return sum, nil
}

func scanBill(row pgx.Row) (Bill, error) {
	var bill Bill
	var categoryName *string
	err := row.Scan(
		&bill.Id,
		&bill.UserId,
		&bill.Name,
		&bill.Amount,
		&bill.DueDay,
		&bill.IsPaid,
		&bill.IsRecurring,
		&bill.CategoryId,
		&categoryName,
	)
	if err != nil {
		return Bill{}, err
	}
	if categoryName != nil {
		bill.CategoryName = *categoryName
	}
	return bill, nil
}
