package scheduler

import (
	"context"
	"time"

	"github.com/finman/finman/internal/batch"
	"github.com/finman/finman/internal/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BudgetChecker evaluates the budgets of all users.
type BudgetChecker interface {
	CheckAll(ctx context.Context, workers int) (batch.Report, error)
}

// BillResetter starts a new billing cycle for all users.
type BillResetter interface {
	ResetAll(ctx context.Context, workers int) (batch.Report, error)
}

type Options struct {
	Workers      int
	BillResetDay int
}

// Scheduler drives the periodic budget check and the monthly bill reset.
type Scheduler struct {
	budgets BudgetChecker
	bills   BillResetter
	clock   utils.Clock
	opts    Options
}

func New(budgets BudgetChecker, bills BillResetter, clock utils.Clock, opts Options) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	opts.BillResetDay = min(max(opts.BillResetDay, 1), MaxResetDay)
	return &Scheduler{budgets: budgets, bills: bills, clock: clock, opts: opts}
}

// Run blocks until ctx is cancelled. budgetTicker triggers a budget check on every tick;
// billTicker polls for the start of a new billing cycle, judged by the tick time.
func (s *Scheduler) Run(ctx context.Context, budgetTicker, billTicker Ticker) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loop(ctx, "budget check", budgetTicker, func(ctx context.Context, _ time.Time) {
			s.CheckBudgets(ctx)
		})
		return nil
	})
	cycle := NewBillingCycle(s.opts.BillResetDay, s.clock.Now())
	log.Infof("Bill reset scheduled on day %d, current cycle started %s",
		s.opts.BillResetDay, cycle.Current().Format(time.DateOnly))
	g.Go(func() error {
		loop(ctx, "bill reset", billTicker, func(ctx context.Context, now time.Time) {
			if cycle.Advance(now) {
				s.ResetBills(ctx)
			}
		})
		return nil
	})
	return g.Wait()
}

func (s *Scheduler) CheckBudgets(ctx context.Context) {
	report, err := s.budgets.CheckAll(ctx, s.opts.Workers)
	if err != nil {
		log.Errorf("budget check aborted: %v", err)
		return
	}
	if err := report.Err(); err != nil {
		log.Warnf("budget check finished with failures: %v", err)
	}
}

func (s *Scheduler) ResetBills(ctx context.Context) {
	report, err := s.bills.ResetAll(ctx, s.opts.Workers)
	if err != nil {
		log.Errorf("bill reset aborted: %v", err)
		return
	}
	if err := report.Err(); err != nil {
		log.Warnf("bill reset finished with failures: %v", err)
	}
}

func loop(ctx context.Context, name string, ticker Ticker, job func(ctx context.Context, now time.Time)) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("Stopping %s job", name)
			return
		case now := <-ticker.C():
			log.Debugf("Running %s job", name)
			job(ctx, now)
		}
	}
}
