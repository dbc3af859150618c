package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/chart"
	"github.com/TOTORON9625/DevTodo/internal/credential"
	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/repository"
	"github.com/TOTORON9625/DevTodo/internal/testutil"
)

var jst = time.FixedZone("JST", 9*60*60)

// wednesday is the clock used by most tests: Wed 2024-05-15 12:00 JST.
var wednesday = time.Date(2024, 5, 15, 12, 0, 0, 0, jst)

type fixture struct {
	store  *testutil.Store
	client *gateway.Client
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore(t)
	session := store.CreateUser(t, "dev@example.com", "correct-horse")
	sessions := &credential.MemoryStore{}
	require.NoError(t, sessions.Save(session))

	c := gateway.NewClient(store.Config(), nil, sessions)
	_, err := c.Restore()
	require.NoError(t, err)
	return &fixture{store: store, client: c, userID: session.User.ID}
}

func (f *fixture) seed(t *testing.T, table string, row map[string]any) string {
	t.Helper()
	out := f.store.Seed(t, f.userID, table, row)
	id, _ := out["id"].(string)
	return id
}

func (f *fixture) aggregator(locale string) *Aggregator {
	return NewAggregator(f.client,
		repository.NewProjects(f.client),
		repository.NewTags(f.client),
		Options{Now: func() time.Time { return wednesday }, Location: jst, Locale: locale})
}

func TestWeekOf(t *testing.T) {
	monday := time.Date(2024, 5, 13, 0, 0, 0, 0, jst)
	tests := []struct {
		name string
		at   time.Time
	}{
		{"monday midnight", monday},
		{"wednesday", wednesday},
		{"sunday", time.Date(2024, 5, 19, 18, 0, 0, 0, jst)},
		{"sunday last instant", time.Date(2024, 5, 19, 23, 59, 59, 999999999, jst)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := WeekOf(tt.at)
			assert.True(t, p.Start.Equal(monday), "start %s", p.Start)
			assert.Equal(t, time.Monday, p.Start.Weekday())
			assert.Equal(t, time.Sunday, p.End.Weekday())
			assert.Equal(t, 7*24*time.Hour-time.Nanosecond, p.End.Sub(p.Start))
			assert.True(t, p.Contains(tt.at))
			assert.Equal(t, "2024-05-13 - 2024-05-19", p.String())
		})
	}
}

func TestMonthOf(t *testing.T) {
	p := MonthOf(2024, time.February, jst)
	assert.Equal(t, "2024-02-01", p.StartDate().String())
	assert.Equal(t, "2024-02-29", p.EndDate().String())
	assert.False(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, jst)))
	assert.True(t, p.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, jst)))
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, tt := range tests {
		got := CompletionRate(tt.done, tt.total)
		assert.Equal(t, tt.want, got, "%d/%d", tt.done, tt.total)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestWeekly(t *testing.T) {
	f := newFixture(t)
	old := "2024-01-01T00:00:00Z"

	// Monday 00:30 JST is still Sunday in UTC.
	early := f.seed(t, "tasks", map[string]any{"title": "early", "status": "done",
		"completed_at": "2024-05-13T00:30:00+09:00", "created_at": old})
	late := f.seed(t, "tasks", map[string]any{"title": "late", "status": "done",
		"completed_at": "2024-05-19T23:00:00+09:00", "created_at": old})
	f.seed(t, "tasks", map[string]any{"title": "last week", "status": "done",
		"completed_at": "2024-05-12T23:59:00+09:00", "created_at": old})
	f.seed(t, "tasks", map[string]any{"title": "doing", "status": "in_progress",
		"created_at": "2024-05-14T10:00:00+09:00"})
	f.seed(t, "tasks", map[string]any{"title": "next week", "status": "todo",
		"created_at": "2024-05-20T00:00:00+09:00"})

	w, err := f.aggregator("").Weekly(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-05-13", w.Period.StartDate().String())
	assert.Equal(t, "2024-05-19", w.Period.EndDate().String())
	assert.Equal(t, 2, w.CompletedCount)
	require.Len(t, w.CompletedTasks, 2)
	assert.Equal(t, late, w.CompletedTasks[0].ID, "newest completion first")
	assert.Equal(t, early, w.CompletedTasks[1].ID)
	assert.Equal(t, 1, w.CreatedCount)
	assert.Equal(t, 1, w.InProgressCount)
	assert.Equal(t, map[string]int{"done": 3, "in_progress": 1, "todo": 1}, w.StatusCounts)
	assert.Equal(t, 60, w.CompletionRate)

	require.Len(t, w.Daily, 7)
	names := make([]string, 7)
	counts := make([]int, 7)
	for i, d := range w.Daily {
		names[i] = d.Name
		counts[i] = d.Count
	}
	assert.Equal(t, []string{"月", "火", "水", "木", "金", "土", "日"}, names)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 1}, counts)
	assert.Equal(t, "2024-05-13", w.Daily[0].Date.String())

	reqs := f.store.Requests()
	require.Len(t, reqs, 4)
	assert.Contains(t, reqs[0].RawQuery, "completed_at=gte.")
	assert.Contains(t, reqs[0].RawQuery, "order=completed_at.desc")
	assert.Contains(t, reqs[2].RawQuery, "status=eq.in_progress")
	assert.Equal(t, "select=id,status", reqs[3].RawQuery)
}

func TestWeeklyEmpty(t *testing.T) {
	f := newFixture(t)

	w, err := f.aggregator("en").Weekly(context.Background())
	require.NoError(t, err)
	assert.Zero(t, w.CompletionRate)
	assert.Empty(t, w.CompletedTasks)
	assert.Equal(t, "Mon", w.Daily[0].Name)
	assert.Equal(t, "Sun", w.Daily[6].Name)
}

func TestWeeklyPropagatesErrors(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("GET", "tasks", 500)

	_, err := f.aggregator("").Weekly(context.Background())
	assert.Equal(t, 500, gateway.RemoteStatus(err))
}

func TestMonthly(t *testing.T) {
	f := newFixture(t)
	april := "2024-04-01T00:00:00Z"

	alpha := f.seed(t, "projects", map[string]any{"name": "Alpha"})
	beta := f.seed(t, "projects", map[string]any{"name": "Beta"})
	f.seed(t, "projects", map[string]any{"name": "Idle"})
	goTag := f.seed(t, "tags", map[string]any{"name": "go"})
	apiTag := f.seed(t, "tags", map[string]any{"name": "api"})

	x := f.seed(t, "tasks", map[string]any{"title": "x", "status": "done", "project_id": beta,
		"color": "#111111", "completed_at": "2024-05-01T09:00:00+09:00", "created_at": april})
	f.seed(t, "tasks", map[string]any{"title": "y", "status": "done", "project_id": beta,
		"color": "", "completed_at": "2024-05-02T09:00:00+09:00", "created_at": "2024-05-02T08:00:00+09:00"})
	z := f.seed(t, "tasks", map[string]any{"title": "z", "status": "done", "project_id": alpha,
		"color": "#111111", "completed_at": "2024-05-31T23:30:00+09:00", "created_at": april})
	w := f.seed(t, "tasks", map[string]any{"title": "w", "status": "done", "project_id": alpha,
		"completed_at": "2024-04-30T23:30:00+09:00", "created_at": april})

	for _, link := range [][2]string{{x, goTag}, {z, goTag}, {z, apiTag}, {w, apiTag}} {
		f.store.Seed(t, f.userID, "task_tags", map[string]any{"task_id": link[0], "tag_id": link[1]})
	}

	m, err := f.aggregator("").Monthly(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.May, m.Month)
	assert.Equal(t, "2024-05-31", m.Period.EndDate().String())
	assert.Equal(t, 3, m.CompletedCount)
	assert.Equal(t, 1, m.CreatedCount)

	assert.Equal(t, []EntityCount{
		{ID: beta, Name: "Beta", Color: model.DefaultColor, Completed: 2},
		{ID: alpha, Name: "Alpha", Color: model.DefaultColor, Completed: 1},
		{Name: "Idle", Color: model.DefaultColor},
	}, withoutIdleID(m.Projects))

	require.Len(t, m.Tags, 2)
	assert.Equal(t, "go", m.Tags[0].Name)
	assert.Equal(t, 2, m.Tags[0].Completed)
	assert.Equal(t, "api", m.Tags[1].Name)
	assert.Equal(t, 1, m.Tags[1].Completed, "april completion is not counted")

	assert.Equal(t, []ColorCount{{"#111111", 2}, {model.DefaultColor, 1}}, m.Colors)
	assert.Equal(t, []WeekCount{{2024, 18, 2}, {2024, 22, 1}}, m.Weeks)
}

// withoutIdleID clears the generated id of the project with no tasks.
func withoutIdleID(stats []EntityCount) []EntityCount {
	out := append([]EntityCount(nil), stats...)
	for i := range out {
		if out[i].Name == "Idle" {
			out[i].ID = ""
		}
	}
	return out
}

func TestMonthlyRejectsInvalidMonth(t *testing.T) {
	f := newFixture(t)

	for _, month := range []int{-1, 13} {
		_, err := f.aggregator("").Monthly(context.Background(), 2024, month)
		assert.Error(t, err)
	}
	assert.Empty(t, f.store.Requests())
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	for _, status := range []string{"done", "todo", "todo"} {
		f.seed(t, "tasks", map[string]any{"title": "t", "status": status})
	}
	f.seed(t, "projects", map[string]any{"name": "p"})
	f.seed(t, "ideas", map[string]any{"title": "i"})
	f.seed(t, "ideas", map[string]any{"title": "j"})

	s, err := f.aggregator("").Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 1, s.TotalProjects)
	assert.Equal(t, 0, s.TotalTags)
	assert.Equal(t, 2, s.TotalIdeas)
	assert.Equal(t, 33.3, s.CompletionRate)
}

func TestDrawWeekly(t *testing.T) {
	f := newFixture(t)
	a := f.aggregator("en")
	rec := &chart.Recorder{}

	w := &Weekly{
		Daily:        a.daily(WeekOf(wednesday), nil),
		StatusCounts: map[string]int{"done": 2, "todo": 1, "blocked": 1},
	}
	require.NoError(t, a.DrawWeekly(rec, w))

	daily, ok := rec.Canvas("weeklyChart")
	require.True(t, ok)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, daily.Labels)

	status, ok := rec.Canvas("statusChart")
	require.True(t, ok)
	assert.Equal(t, []string{"Todo", "Done", "blocked"}, status.Labels)
	assert.Equal(t, []float64{1, 2, 1}, status.Values)
	assert.Equal(t, "#388E3C", status.Colors[1])
}

func TestDrawMonthlySkipsEmptyCharts(t *testing.T) {
	a := newFixture(t).aggregator("")
	rec := &chart.Recorder{}

	m := &Monthly{
		Projects: []EntityCount{{Name: "Alpha", Color: "#111111", Completed: 1}},
		Colors:   []ColorCount{{Color: "#111111", Count: 1}},
	}
	require.NoError(t, a.DrawMonthly(rec, m))

	var ids []string
	for _, d := range rec.Drawings() {
		ids = append(ids, d.CanvasID)
	}
	assert.Equal(t, []string{"projectChart", "colorChart"}, ids)
}

func TestDrawToTerminal(t *testing.T) {
	var b strings.Builder
	a := newFixture(t).aggregator("en")

	err := a.DrawSummary(chart.NewTerminalSink(&b, 10), &Summary{StatusCounts: map[string]int{"done": 1}})
	require.NoError(t, err)
	assert.Contains(t, b.String(), "Status distribution")
	assert.Contains(t, b.String(), "Done")
}
