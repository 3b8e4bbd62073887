package bill

import (
	"context"
	"fmt"

	"github.com/finman/finman/internal/batch"
	"github.com/finman/finman/pkg/user"
	log "github.com/sirupsen/logrus"
)

const ActionReset = "reset"

type UserLister interface {
	GetAllUsers(ctx context.Context) ([]user.User, error)
}

// Resetter starts a new billing cycle by marking paid recurring bills as unpaid again.
type Resetter struct {
	users UserLister
	bills Repository
}

func NewResetter(users UserLister, bills Repository) *Resetter {
	return &Resetter{users: users, bills: bills}
}

// ResetAll resets the bills of every user. Each bill is saved on its own so one failing bill
// leaves the rest of the cycle intact. Running it twice in a cycle changes nothing the second time.
func (r *Resetter) ResetAll(ctx context.Context, workers int) (batch.Report, error) {
	users, err := r.users.GetAllUsers(ctx)
	if err != nil {
		return batch.Report{}, fmt.Errorf("failed to list users: %w", err)
	}
	report, err := batch.ForEach(ctx, users, workers, func(u user.User) batch.Outcome {
		return batch.Outcome{Subject: "user", Id: u.Id, UserId: u.Id}
	}, func(ctx context.Context, u user.User) batch.Report {
		return r.ResetUser(ctx, u.Id)
	})
	log.WithFields(log.Fields{
		"users":  len(users),
		"reset":  report.CountAction(ActionReset),
		"failed": report.Count(batch.StatusFailed),
	}).Info("bill cycle reset finished")
	return report, err
}

func (r *Resetter) ResetUser(ctx context.Context, userId int) batch.Report {
	var report batch.Report
	bills, err := r.bills.FindByUser(ctx, userId)
	if err != nil {
		log.Errorf("failed to load bills of user %d: %v", userId, err)
		report.Add(batch.Outcome{Subject: "user", Id: userId, UserId: userId, Status: batch.StatusFailed, Err: err})
		return report
	}

	for _, b := range bills {
		if !b.IsPaid || !b.IsRecurring {
			continue
		}
		outcome := batch.Outcome{Subject: "bill", Id: b.Id, UserId: userId, Status: batch.StatusSucceeded, Action: ActionReset}
		err := batch.Attempt(func() error {
			b.IsPaid = false
			updated, err := r.bills.Update(ctx, b)
			if err != nil {
				return err
			}
			if !updated {
				return ErrBillNotFound
			}
			return nil
		})
		if err != nil {
			log.WithFields(log.Fields{"user": userId, "bill": b.Id}).Errorf("failed to reset bill: %v", err)
			outcome.Status = batch.StatusFailed
			outcome.Action = ""
			outcome.Err = err
		}
		report.Add(outcome)
	}
	return report
}
