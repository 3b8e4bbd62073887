package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/finman/finman/internal/event_bus"
	"github.com/finman/finman/internal/utils"
	"github.com/finman/finman/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Service interface {
	Notify(ctx context.Context, warning event_bus.BudgetThresholdExceeded) (Notification, error)
	GetAll(ctx context.Context, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type ServiceImpl struct {
	repo  Repository
	sink  Sink
	clock utils.Clock
}

func NewService(repo Repository, sink Sink, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, sink: sink, clock: clock}
}

// Subscribe delivers every budget warning published on the bus.
func (s *ServiceImpl) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.BudgetThresholdExceededType,
		func(e event_bus.EventT[event_bus.BudgetThresholdExceeded]) error {
			_, err := s.Notify(e.Context(), e.Data)
			return err
		})
}

// Notify stores an unread notification for the warning and hands it to the sink.
// The record is kept even when delivery fails.
func (s *ServiceImpl) Notify(ctx context.Context, warning event_bus.BudgetThresholdExceeded) (Notification, error) {
	subject, message := Render(warning)
	n := Notification{
		Id:       uuid.New(),
		UserId:   warning.UserId,
		BudgetId: warning.BudgetId,
		Subject:  subject,
		Message:  message,
		SentAt:   s.clock.Now(),
	}
	if err := s.repo.Store(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}
	if err := s.sink.Send(ctx, n, warning.UserEmail); err != nil {
		return n, fmt.Errorf("failed to deliver notification %s: %w", n.Id, err)
	}
	log.Debugf("notification %s sent to user %d", n.Id, n.UserId)
	return n, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindByUser(ctx, userId, unreadOnly)
}

func (s *ServiceImpl) MarkRead(ctx context.Context, id uuid.UUID) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	updated, err := s.repo.MarkRead(ctx, userId, id)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *ServiceImpl) MarkAllRead(ctx context.Context) (int64, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkAllRead(ctx, userId)
}
