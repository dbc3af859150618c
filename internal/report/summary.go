package report

import (
	"context"
	"math"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// Summary holds all-time totals.
type Summary struct {
	TotalTasks     int            `json:"total_tasks"`
	StatusCounts   map[string]int `json:"status_counts"`
	TotalProjects  int            `json:"total_projects"`
	TotalTags      int            `json:"total_tags"`
	TotalIdeas     int            `json:"total_ideas"`
	CompletionRate float64        `json:"completion_rate"`
}

// Summary counts every task, project, tag and idea. The completion rate is
// a percentage rounded to one decimal.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	statuses, total, err := a.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{TotalTasks: total, StatusCounts: statuses}
	totals := []struct {
		table string
		dst   *int
	}{
		{"projects", &s.TotalProjects},
		{"tags", &s.TotalTags},
		{"ideas", &s.TotalIdeas},
	}
	for _, t := range totals {
		n, err := a.count(ctx, t.table)
		if err != nil {
			return nil, err
		}
		*t.dst = n
	}

	if total > 0 {
		rate := float64(statuses[model.StatusDone]) / float64(total) * 100
		s.CompletionRate = math.Round(rate*10) / 10
	}
	return s, nil
}
