package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, n Notification) error
	FindByUser(ctx context.Context, userId int, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, userId int, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userId int) (int64, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, n Notification) error {
	query := `INSERT INTO notification (id, user_id, budget_id, subject, message, sent_at, is_read)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, n.Id, n.UserId, n.BudgetId, n.Subject, n.Message, n.SentAt, n.IsRead)
	if err != nil {
		err := fmt.Errorf("could not store notification: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) FindByUser(ctx context.Context, userId int, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, user_id, budget_id, subject, message, sent_at, is_read FROM notification WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY sent_at DESC`

	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query notifications: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Id, &n.UserId, &n.BudgetId, &n.Subject, &n.Message, &n.SentAt, &n.IsRead); err != nil {
			return nil, fmt.Errorf("could not scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *RepositoryImpl) MarkRead(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		return false, fmt.Errorf("could not mark notification %s as read: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) MarkAllRead(ctx context.Context, userId int) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userId)
	if err != nil {
		return 0, fmt.Errorf("could not mark notifications of user %d as read: %w", userId, err)
	}
	return tag.RowsAffected(), nil
}
