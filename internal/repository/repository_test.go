package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/credential"
	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/testutil"
)

// fixture is a signed-in client against a fresh fixture store.
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
	return f.store.Seed(t, f.userID, table, row)["id"].(string)
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"repeats keep first", []string{"b", "a", "b", "a"}, []string{"b", "a"}},
		{"empty ids dropped", []string{"", "a", ""}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupe(tt.in))
		})
	}
}

func TestPartialErrorMessage(t *testing.T) {
	s := &steps{op: "create task"}
	s.done("insert task t1")
	err := s.fail("attach tag g2", assert.AnError)

	assert.Equal(t, []string{"insert task t1"}, err.Applied)
	assert.Contains(t, err.Error(), "create task partially applied")
	assert.Contains(t, err.Error(), "failed: attach tag g2")
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, IsPartial(err))
	assert.False(t, IsPartial(assert.AnError))

	empty := (&steps{op: "x"}).fail("y", assert.AnError)
	assert.Contains(t, empty.Error(), "applied: nothing")
}

func TestRequestsRequireSession(t *testing.T) {
	store := testutil.NewStore(t)
	c := gateway.NewClient(store.Config(), nil, nil)

	_, err := NewProjects(c).List(context.Background())
	assert.True(t, gateway.IsAuthRequired(err))
	assert.Empty(t, store.Requests())
}

func TestProjectsListCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	web := f.seed(t, "projects", map[string]any{"name": "Website", "created_at": "2024-01-01T00:00:00Z"})
	api := f.seed(t, "projects", map[string]any{"name": "API", "created_at": "2024-02-01T00:00:00Z"})
	for _, status := range []string{"done", "todo", "done"} {
		f.seed(t, "tasks", map[string]any{"title": "w", "status": status, "project_id": web})
	}
	f.seed(t, "tasks", map[string]any{"title": "unassigned", "status": "done"})

	projects, err := NewProjects(f.client).List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, api, projects[0].ID, "newest first")
	assert.Equal(t, 0, projects[0].TaskCount)
	assert.Zero(t, projects[0].Progress())

	assert.Equal(t, web, projects[1].ID)
	assert.Equal(t, 3, projects[1].TaskCount)
	assert.Equal(t, 2, projects[1].CompletedCount)
	assert.InDelta(t, 0.667, projects[1].Progress(), 0.001)
}

func TestProjectsCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projects := NewProjects(f.client)

	_, err := projects.Create(ctx, ProjectInput{Name: "  "})
	require.Error(t, err)
	assert.Empty(t, f.store.Writes())

	p, err := projects.Create(ctx, ProjectInput{Name: "Website"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultColor, p.Color)
	assert.Equal(t, f.userID, p.UserID)

	name := "Landing page"
	updated, err := projects.Update(ctx, p.ID, ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Landing page", updated.Name)

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Landing page", got.Name)

	require.NoError(t, projects.Delete(ctx, p.ID))
	_, err = projects.Get(ctx, p.ID)
	assert.True(t, gateway.IsNotFound(err))

	_, err = projects.Update(ctx, p.ID, ProjectPatch{Name: &name})
	assert.True(t, gateway.IsNotFound(err))
}

func TestProjectDeleteKeepsTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.seed(t, "projects", map[string]any{"name": "Website"})
	task := f.seed(t, "tasks", map[string]any{"title": "ship", "project_id": project})

	require.NoError(t, NewProjects(f.client).Delete(ctx, project))

	got, err := NewTasks(f.client, nil).Get(ctx, task)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
	assert.Empty(t, got.ProjectName)
}

func TestTagsListUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goTag := f.seed(t, "tags", map[string]any{"name": "go"})
	f.seed(t, "tags", map[string]any{"name": "api"})
	for i := 0; i < 2; i++ {
		task := f.seed(t, "tasks", map[string]any{"title": "t"})
		f.store.Seed(t, f.userID, "task_tags", map[string]any{"task_id": task, "tag_id": goTag})
	}

	tags, err := NewTags(f.client).List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "api", tags[0].Name, "ordered by name")
	assert.Equal(t, 0, tags[0].UsageCount)
	assert.Equal(t, "go", tags[1].Name)
	assert.Equal(t, 2, tags[1].UsageCount)
}

func TestTagDeleteRemovesOnlyItsAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tags := NewTags(f.client)

	a, err := tags.Create(ctx, TagInput{Name: "a"})
	require.NoError(t, err)
	b, err := tags.Create(ctx, TagInput{Name: "b", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "#000000", b.Color)

	task, err := NewTasks(f.client, nil).Create(ctx, TaskInput{Title: "x", TagIDs: []string{a.ID, b.ID}})
	require.NoError(t, err)
	require.Len(t, task.Tags, 2)

	require.NoError(t, tags.Delete(ctx, a.ID))

	links := f.store.Rows(t, "task_tags")
	require.Len(t, links, 1)
	assert.Equal(t, b.ID, links[0]["tag_id"])

	ids, err := tags.TaskIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, ids)

	name := "renamed"
	renamed, err := tags.Update(ctx, b.ID, TagPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Name)
}
