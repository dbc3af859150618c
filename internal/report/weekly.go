package report

import (
	"context"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// DayCount is the number of tasks completed on one day.
type DayCount struct {
	Date  model.Date `json:"date"`
	Name  string     `json:"day_name"`
	Count int        `json:"count"`
}

// Weekly summarizes the Monday-to-Sunday week containing now.
type Weekly struct {
	Period          Period         `json:"period"`
	CompletedTasks  []model.Task   `json:"completed_tasks"`
	CompletedCount  int            `json:"completed_count"`
	CreatedCount    int            `json:"created_count"`
	InProgressCount int            `json:"in_progress_count"`
	StatusCounts    map[string]int `json:"status_counts"`
	Daily           []DayCount     `json:"daily_data"`
	CompletionRate  int            `json:"completion_rate"`
}

// WeekOf returns the Monday 00:00 to Sunday 23:59:59.999999999 window
// containing t, in t's location.
func WeekOf(t time.Time) Period {
	offset := (int(t.Weekday()) + 6) % 7
	start := startOfDay(t).AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}
}

// Weekly builds the report for the current week. It issues four reads:
// tasks completed in the week (newest first), tasks created in the week,
// in-progress tasks, and the status of every task.
func (a *Aggregator) Weekly(ctx context.Context) (*Weekly, error) {
	period := WeekOf(a.now().In(a.loc))

	completed, err := a.tasksBetween(ctx, "completed_at", period, true)
	if err != nil {
		return nil, err
	}
	created, err := a.tasksBetween(ctx, "created_at", period, false)
	if err != nil {
		return nil, err
	}
	inProgress, err := a.inProgress(ctx)
	if err != nil {
		return nil, err
	}
	statuses, total, err := a.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &Weekly{
		Period:          period,
		CompletedTasks:  completed,
		CompletedCount:  len(completed),
		CreatedCount:    len(created),
		InProgressCount: inProgress,
		StatusCounts:    statuses,
		Daily:           a.daily(period, completed),
		CompletionRate:  CompletionRate(statuses[model.StatusDone], total),
	}, nil
}

func (a *Aggregator) inProgress(ctx context.Context) (int, error) {
	rows, err := a.tasksWithStatus(ctx, model.StatusInProgress)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// daily buckets completions into the seven days of the window by local
// date.
func (a *Aggregator) daily(period Period, completed []model.Task) []DayCount {
	days := make([]DayCount, 7)
	for i := range days {
		day := period.Start.AddDate(0, 0, i)
		days[i] = DayCount{Date: dateOf(day), Name: a.locale.days[i]}

		for _, t := range completed {
			if t.CompletedAt != nil && sameDay(t.CompletedAt.In(a.loc), day) {
				days[i].Count++
			}
		}
	}
	return days
}
