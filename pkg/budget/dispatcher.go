package budget

import (
	"context"
	"sync"

	"github.com/finman/finman/internal/event_bus"
)

// EventDispatcher publishes warnings on the event bus, where the notification service picks them up.
type EventDispatcher struct {
	bus *event_bus.EventBus
}

func NewEventDispatcher(bus *event_bus.EventBus) *EventDispatcher {
	return &EventDispatcher{bus: bus}
}

func (d *EventDispatcher) DispatchWarning(ctx context.Context, w Warning) error {
	return d.bus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetThresholdExceededType, event_bus.BudgetThresholdExceeded{
		UserId:          w.User.Id,
		UserEmail:       w.User.Email,
		BudgetId:        w.Budget.ID,
		BudgetName:      w.Budget.Name,
		BudgetAmount:    w.Budget.Amount,
		CurrentSpending: w.Spending,
		Ratio:           w.Ratio,
		PeriodLabel:     w.PeriodLabel,
		CategoryName:    w.CategoryName,
	}))
}

// DispatcherStub records every warning it receives.
type DispatcherStub struct {
	mu       sync.Mutex
	Warnings []Warning
	// Fail makes DispatchWarning return the given error for the given budget.
	Fail map[int]error
}

func NewDispatcherStub() *DispatcherStub {
	return &DispatcherStub{Fail: map[int]error{}}
}

func (d *DispatcherStub) DispatchWarning(ctx context.Context, w Warning) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Fail[w.Budget.ID]; err != nil {
		return err
	}
	d.Warnings = append(d.Warnings, w)
	return nil
}
