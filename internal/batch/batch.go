package batch

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to a single unit of work of a batch run.
type Outcome struct {
	Subject string
	Id      int
	UserId  int
	Status  Status
	// Action describes a side effect that happened, e.g. "warning dispatched" or "reset".
	Action string
	Err    error
}

type Report struct {
	Outcomes []Outcome
}

func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) Merge(other Report) {
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
}

func (r Report) Count(status Status) int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			count++
		}
	}
	return count
}

// CountAction counts succeeded outcomes that performed the given action.
func (r Report) CountAction(action string) int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusSucceeded && o.Action == action {
			count++
		}
	}
	return count
}

func (r Report) Failed() []Outcome {
	failed := make([]Outcome, 0)
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of all failed outcomes, nil when nothing failed.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s %d (user %d): %w", o.Subject, o.Id, o.UserId, o.Err))
	}
	return errors.Join(errs...)
}

// Attempt runs fn and converts a panic into an error so a corrupt record cannot abort a batch.
func Attempt(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
			log.Error(err)
		}
	}()
	return fn()
}

// ForEach runs fn for every item on at most workers goroutines and merges the reports in item order.
// Items not yet started when ctx is cancelled are not run. A panicking fn is recorded as the failed
// outcome returned by describe for its item, and the other items keep running.
func ForEach[T any](ctx context.Context, items []T, workers int, describe func(T) Outcome, fn func(context.Context, T) Report) (Report, error) {
	if workers < 1 {
		workers = 1
	}
	reports := make([]Report, len(items))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := Attempt(func() error {
				reports[i] = fn(ctx, item)
				return nil
			})
			if err != nil {
				failed := describe(item)
				failed.Status = StatusFailed
				failed.Err = err
				reports[i] = Report{Outcomes: []Outcome{failed}}
			}
			return nil
		})
	}
	_ = g.Wait()

	var merged Report
	for _, r := range reports {
		merged.Merge(r)
	}
	return merged, ctx.Err()
}
