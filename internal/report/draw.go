package report

import (
	"sort"

	"github.com/TOTORON9625/DevTodo/internal/chart"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/theme"
)

// Canvas ids the reports draw to.
const (
	canvasDaily    = "weeklyChart"
	canvasStatus   = "statusChart"
	canvasProjects = "projectChart"
	canvasTags     = "tagChart"
	canvasColors   = "colorChart"
	canvasWeeks    = "monthWeeksChart"
)

// DrawWeekly renders the daily completion bars and the status distribution.
func (a *Aggregator) DrawWeekly(sink chart.Sink, w *Weekly) error {
	daily := chart.Dataset{Title: a.locale.titles[canvasDaily]}
	for _, d := range w.Daily {
		daily.Labels = append(daily.Labels, d.Name)
		daily.Values = append(daily.Values, float64(d.Count))
		daily.Colors = append(daily.Colors, model.DefaultColor)
	}
	if err := sink.Draw(canvasDaily, daily); err != nil {
		return err
	}
	return sink.Draw(canvasStatus, a.statusDataset(w.StatusCounts))
}

// DrawMonthly renders the project, tag, color and week charts. Empty
// statistics are skipped.
func (a *Aggregator) DrawMonthly(sink chart.Sink, m *Monthly) error {
	charts := []struct {
		id string
		ds chart.Dataset
	}{
		{canvasProjects, entityDataset(a.locale.titles[canvasProjects], m.Projects)},
		{canvasTags, entityDataset(a.locale.titles[canvasTags], m.Tags)},
		{canvasColors, colorDataset(a.locale.titles[canvasColors], m.Colors)},
		{canvasWeeks, weekDataset(a.locale.titles[canvasWeeks], m.Weeks)},
	}
	for _, c := range charts {
		if len(c.ds.Labels) == 0 {
			continue
		}
		if err := sink.Draw(c.id, c.ds); err != nil {
			return err
		}
	}
	return nil
}

// DrawSummary renders the status distribution.
func (a *Aggregator) DrawSummary(sink chart.Sink, s *Summary) error {
	return sink.Draw(canvasStatus, a.statusDataset(s.StatusCounts))
}

// statusDataset lists known statuses in display order, then any unknown
// ones by name. Statuses with no tasks are left out.
func (a *Aggregator) statusDataset(counts map[string]int) chart.Dataset {
	ds := chart.Dataset{Title: a.locale.titles[canvasStatus]}

	var unknown []string
	for s := range counts {
		if !model.ValidStatus(s) {
			unknown = append(unknown, s)
		}
	}
	sort.Strings(unknown)

	for _, s := range append(append([]string(nil), model.Statuses...), unknown...) {
		n := counts[s]
		if n == 0 {
			continue
		}
		color, ok := theme.StatusColors[s]
		if !ok {
			color = model.DefaultColor
		}
		ds.Labels = append(ds.Labels, a.locale.status(s))
		ds.Values = append(ds.Values, float64(n))
		ds.Colors = append(ds.Colors, color)
	}
	return ds
}

func entityDataset(title string, stats []EntityCount) chart.Dataset {
	ds := chart.Dataset{Title: title}
	for _, s := range stats {
		ds.Labels = append(ds.Labels, s.Name)
		ds.Values = append(ds.Values, float64(s.Completed))
		ds.Colors = append(ds.Colors, s.Color)
	}
	return ds
}

func colorDataset(title string, stats []ColorCount) chart.Dataset {
	ds := chart.Dataset{Title: title}
	for _, s := range stats {
		ds.Labels = append(ds.Labels, s.Color)
		ds.Values = append(ds.Values, float64(s.Count))
		ds.Colors = append(ds.Colors, s.Color)
	}
	return ds
}

func weekDataset(title string, stats []WeekCount) chart.Dataset {
	ds := chart.Dataset{Title: title}
	for _, s := range stats {
		ds.Labels = append(ds.Labels, s.Label())
		ds.Values = append(ds.Values, float64(s.Count))
	}
	return ds
}
