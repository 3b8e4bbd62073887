package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrBudgetNotFound = errors.New("budget not found")

type BudgetRepo interface {
	// Store stores a new Budget to the database
	Store(ctx context.Context, budget Budget) (int, error)
	Get(ctx context.Context, userId int, id int) (Budget, error)
	FindByUser(ctx context.Context, userId int) ([]Budget, error)
	// FindActive returns the budgets of the user whose date range contains day.
	FindActive(ctx context.Context, userId int, day time.Time) ([]Budget, error)
	Update(ctx context.Context, budget Budget) (bool, error)
	Delete(ctx context.Context, userId int, budgetId int) (bool, error)
}

type BudgetRepoImpl struct {
	db *pgxpool.Pool
}

func NewBudgetRepo(db *pgxpool.Pool) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

const budgetSelect = `SELECT b.id, b.user_id, b.name, b.amount, b.category_id, c.name, b.period,
       b.start_date, b.end_date, b.warning_threshold
FROM budget b
LEFT JOIN category c ON c.id = b.category_id`

func (r *BudgetRepoImpl) Store(ctx context.Context, budget Budget) (int, error) {
	query := `INSERT INTO budget (user_id, name, amount, category_id, period, start_date, end_date, warning_threshold)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int
	err := r.db.QueryRow(ctx, query,
		budget.UserId,
		budget.Name,
		budget.Amount,
		budget.CategoryId,
		string(budget.Period),
		budget.StartDate,
		nullableDate(budget.EndDate),
		budget.WarningThreshold,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store budget: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (r *BudgetRepoImpl) Get(ctx context.Context, userId int, id int) (Budget, error) {
	budget, err := scanBudget(r.db.QueryRow(ctx, budgetSelect+` WHERE b.user_id = $1 AND b.id = $2`, userId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, ErrBudgetNotFound
	}
	if err != nil {
		log.Errorf("could not get budget %d: %v", id, err)
		return Budget{}, err
	}
	return budget, nil
}

func (r *BudgetRepoImpl) FindByUser(ctx context.Context, userId int) ([]Budget, error) {
	return r.query(ctx, budgetSelect+` WHERE b.user_id = $1 ORDER BY b.id`, userId)
}

func (r *BudgetRepoImpl) FindActive(ctx context.Context, userId int, day time.Time) ([]Budget, error) {
	query := budgetSelect + ` WHERE b.user_id = $1 AND b.start_date <= $2::date AND (b.end_date IS NULL OR b.end_date >= $2::date)
ORDER BY b.id`
	return r.query(ctx, query, userId, day.Format(time.DateOnly))
}

func (r *BudgetRepoImpl) query(ctx context.Context, query string, args ...any) ([]Budget, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query budgets: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	budgets := make([]Budget, 0)
	for rows.Next() {
		budget, err := scanBudget(rows)
		if errors.Is(err, ErrUnknownPeriod) {
			log.Warnf("skipping budget %d of user %d: %v", budget.ID, budget.UserId, err)
			continue
		}
		if err != nil {
			err := fmt.Errorf("could not scan budget: %w", err)
			log.Error(err)
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepoImpl) Update(ctx context.Context, budget Budget) (bool, error) {
	query := `UPDATE budget SET name = $1, amount = $2, category_id = $3, period = $4, start_date = $5,
                  end_date = $6, warning_threshold = $7
			  WHERE id = $8 AND user_id = $9`
	tag, err := r.db.Exec(ctx, query,
		budget.Name,
		budget.Amount,
		budget.CategoryId,
		string(budget.Period),
		budget.StartDate,
		nullableDate(budget.EndDate),
		budget.WarningThreshold,
		budget.ID,
		budget.UserId,
	)
	if err != nil {
		err := fmt.Errorf("could not update budget %d: %w", budget.ID, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BudgetRepoImpl) Delete(ctx context.Context, userId int, budgetId int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM budget WHERE id = $1 AND user_id = $2`, budgetId, userId)
	if err != nil {
		err := fmt.Errorf("could not delete budget %d: %w", budgetId, err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// scanBudget returns the partially filled budget together with ErrUnknownPeriod when the stored period is invalid.
func scanBudget(row pgx.Row) (Budget, error) {
	var budget Budget
	var categoryName *string
	var period string
	var endDate *time.Time
	err := row.Scan(
		&budget.ID,
		&budget.UserId,
		&budget.Name,
		&budget.Amount,
		&budget.CategoryId,
		&categoryName,
		&period,
		&budget.StartDate,
		&endDate,
		&budget.WarningThreshold,
	)
	if err != nil {
		return Budget{}, err
	}
	if categoryName != nil {
		budget.CategoryName = *categoryName
	}
	if endDate != nil {
		budget.EndDate = *endDate
	}
	budget.Period, err = ParsePeriod(period)
	return budget, err
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
