// Package report aggregates task statistics over calendar windows.
//
// All windows are computed in the aggregator's location, and completion
// days are compared as local dates in that location.
package report

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/query"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

// Options tunes an Aggregator. Zero values use time.Now, time.Local and the
// Japanese locale.
type Options struct {
	Now      func() time.Time
	Location *time.Location
	Locale   string
}

// Aggregator builds weekly, monthly and summary reports.
type Aggregator struct {
	r        gateway.Requester
	projects repository.ProjectRepository
	tags     repository.TagRepository

	now    func() time.Time
	loc    *time.Location
	locale locale
}

// NewAggregator creates an aggregator reading through r and the given
// repositories.
func NewAggregator(r gateway.Requester, projects repository.ProjectRepository, tags repository.TagRepository, opts Options) *Aggregator {
	a := &Aggregator{
		r:        r,
		projects: projects,
		tags:     tags,
		now:      opts.Now,
		loc:      opts.Location,
		locale:   localeFor(opts.Locale),
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	return a
}

// Period is an inclusive time window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// StartDate and EndDate return the window bounds as calendar dates.
func (p Period) StartDate() model.Date { return dateOf(p.Start) }
func (p Period) EndDate() model.Date { return dateOf(p.End) }

func (p Period) String() string {
	return p.StartDate().String() + " - " + p.EndDate().String()
}

// tasksBetween fetches tasks whose column falls inside the window.
func (a *Aggregator) tasksBetween(ctx context.Context, column string, p Period, order bool) ([]model.Task, error) {
	q := query.New().
		Gte(column, p.Start.Format(time.RFC3339Nano)).
		Lte(column, p.End.Format(time.RFC3339Nano))
	if order {
		q.Order(column, query.Desc)
	}

	raw, err := a.r.Request(ctx, "tasks", http.MethodGet, nil, q)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks by %s: %w", column, err)
	}
	return gateway.DecodeRows[model.Task](raw)
}

// statusCounts fetches every task's status and counts them.
func (a *Aggregator) statusCounts(ctx context.Context) (map[string]int, int, error) {
	raw, err := a.r.Request(ctx, "tasks", http.MethodGet, nil, query.New().Select("id", "status"))
	if err != nil {
		return nil, 0, fmt.Errorf("fetching task statuses: %w", err)
	}
	rows, err := gateway.DecodeRows[model.Task](raw)
	if err != nil {
		return nil, 0, err
	}

	counts := map[string]int{}
	for _, t := range rows {
		counts[t.Status]++
	}
	return counts, len(rows), nil
}

// count fetches a table projected to its ids and returns the row count.
func (a *Aggregator) count(ctx context.Context, table string) (int, error) {
	raw, err := a.r.Request(ctx, table, http.MethodGet, nil, query.New().Select("id"))
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	rows, err := gateway.DecodeRows[struct {
		ID string `json:"id"`
	}](raw)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CompletionRate returns round(done/total*100), or 0 when total is 0.
func CompletionRate(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// startOfDay returns local midnight of t's date.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dateOf(t time.Time) model.Date {
	y, m, d := t.Date()
	return model.NewDate(y, m, d)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (a *Aggregator) tasksWithStatus(ctx context.Context, status string) ([]model.Task, error) {
	raw, err := a.r.Request(ctx, "tasks", http.MethodGet, nil, query.New().Eq("status", status))
	if err != nil {
		return nil, fmt.Errorf("fetching %s tasks: %w", status, err)
	}
	return gateway.DecodeRows[model.Task](raw)
}
