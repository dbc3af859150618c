package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// EntityCount is the number of tasks completed under a project or tag.
type EntityCount struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Completed int    `json:"completed_count"`
}

// ColorCount is the number of completed tasks carrying a color.
type ColorCount struct {
	Color string `json:"color"`
	Count int    `json:"count"`
}

// WeekCount is the number of tasks completed in one ISO week.
type WeekCount struct {
	Year  int `json:"year"`
	Week  int `json:"week"`
	Count int `json:"count"`
}

// Label renders the week as 2024-W05.
func (w WeekCount) Label() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}

// Monthly summarizes one calendar month.
type Monthly struct {
	Year           int           `json:"year"`
	Month          time.Month    `json:"month"`
	Period         Period        `json:"period"`
	CompletedCount int           `json:"completed_count"`
	CreatedCount   int           `json:"created_count"`
	Projects       []EntityCount `json:"project_stats"`
	Tags           []EntityCount `json:"tag_stats"`
	Colors         []ColorCount  `json:"color_stats"`
	Weeks          []WeekCount   `json:"weekly_data"`
}

// MonthOf returns the window from the first day 00:00 to the end of the last
// day of the month, in loc.
func MonthOf(year int, month time.Month, loc *time.Location) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// Monthly builds the report for year and month. Zero values select the
// current year or month; a month outside 1..12 is an error.
//
// Project and tag counts are zero-filled over every project and tag and are
// sorted by count descending, then name. Each tag costs one extra read for
// its task ids.
func (a *Aggregator) Monthly(ctx context.Context, year, month int) (*Monthly, error) {
	now := a.now().In(a.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}

	period := MonthOf(year, time.Month(month), a.loc)

	completed, err := a.tasksBetween(ctx, "completed_at", period, false)
	if err != nil {
		return nil, err
	}
	created, err := a.tasksBetween(ctx, "created_at", period, false)
	if err != nil {
		return nil, err
	}
	projects, err := a.projectStats(ctx, completed)
	if err != nil {
		return nil, err
	}
	tags, err := a.tagStats(ctx, completed)
	if err != nil {
		return nil, err
	}

	return &Monthly{
		Year:           year,
		Month:          time.Month(month),
		Period:         period,
		CompletedCount: len(completed),
		CreatedCount:   len(created),
		Projects:       projects,
		Tags:           tags,
		Colors:         colorStats(completed),
		Weeks:          a.weekStats(completed),
	}, nil
}

func (a *Aggregator) projectStats(ctx context.Context, completed []model.Task) ([]EntityCount, error) {
	projects, err := a.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]EntityCount, 0, len(projects))
	for _, p := range projects {
		n := 0
		for _, t := range completed {
			if t.ProjectID != nil && *t.ProjectID == p.ID {
				n++
			}
		}
		stats = append(stats, EntityCount{ID: p.ID, Name: p.Name, Color: p.Color, Completed: n})
	}
	sortEntityCounts(stats)
	return stats, nil
}

func (a *Aggregator) tagStats(ctx context.Context, completed []model.Task) ([]EntityCount, error) {
	tags, err := a.tags.List(ctx)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(completed))
	for _, t := range completed {
		done[t.ID] = true
	}

	stats := make([]EntityCount, 0, len(tags))
	for _, tag := range tags {
		ids, err := a.tags.TaskIDs(ctx, tag.ID)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, id := range ids {
			if done[id] {
				n++
			}
		}
		stats = append(stats, EntityCount{ID: tag.ID, Name: tag.Name, Color: tag.Color, Completed: n})
	}
	sortEntityCounts(stats)
	return stats, nil
}

func sortEntityCounts(stats []EntityCount) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Completed != stats[j].Completed {
			return stats[i].Completed > stats[j].Completed
		}
		return stats[i].Name < stats[j].Name
	})
}

// colorStats counts completions per color. Tasks without a color count as
// the default color.
func colorStats(completed []model.Task) []ColorCount {
	counts := map[string]int{}
	for _, t := range completed {
		color := t.Color
		if color == "" {
			color = model.DefaultColor
		}
		counts[color]++
	}

	stats := make([]ColorCount, 0, len(counts))
	for color, n := range counts {
		stats = append(stats, ColorCount{Color: color, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Color < stats[j].Color
	})
	return stats
}

// weekStats buckets completions by ISO week of their local completion time,
// in chronological order.
func (a *Aggregator) weekStats(completed []model.Task) []WeekCount {
	type key struct{ year, week int }
	counts := map[key]int{}
	for _, t := range completed {
		if t.CompletedAt == nil {
			continue
		}
		y, w := t.CompletedAt.In(a.loc).ISOWeek()
		counts[key{y, w}]++
	}

	stats := make([]WeekCount, 0, len(counts))
	for k, n := range counts {
		stats = append(stats, WeekCount{Year: k.year, Week: k.week, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year < stats[j].Year
		}
		return stats[i].Week < stats[j].Week
	})
	return stats
}
