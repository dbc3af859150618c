package repository

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
)

func newIdeas(f *fixture) *Ideas {
	return NewIdeas(f.client, NewTasks(f.client, nil))
}

func TestIdeasListPinnedFirst(t *testing.T) {
	f := newFixture(t)
	old := f.seed(t, "ideas", map[string]any{"title": "old", "updated_at": "2024-01-01T00:00:00Z"})
	recent := f.seed(t, "ideas", map[string]any{"title": "recent", "updated_at": "2024-03-01T00:00:00Z"})
	pinned := f.seed(t, "ideas", map[string]any{"title": "pinned", "is_pinned": true, "updated_at": "2023-01-01T00:00:00Z"})

	ideas, err := newIdeas(f).List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, ideas, 3)
	assert.Equal(t, []string{pinned, recent, old}, []string{ideas[0].ID, ideas[1].ID, ideas[2].ID})
	assert.True(t, ideas[0].IsPinned)
}

func TestIdeasSearch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ideas", map[string]any{"title": "Deploy pipeline", "content": "ci"})
	f.seed(t, "ideas", map[string]any{"title": "Dark mode", "content": "remember to deploy the theme"})
	f.seed(t, "ideas", map[string]any{"title": "Unrelated", "content": "nothing here"})

	ideas, err := newIdeas(f).List(context.Background(), "DEPLOY")
	require.NoError(t, err)
	assert.Len(t, ideas, 2)

	reqs := f.store.Requests()
	assert.Contains(t, reqs[len(reqs)-1].RawQuery, "or=(title.ilike.*DEPLOY*,content.ilike.*DEPLOY*)")
}

func TestIdeasCRUDAndPin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ideas := newIdeas(f)

	_, err := ideas.Create(ctx, IdeaInput{})
	require.Error(t, err)

	idea, err := ideas.Create(ctx, IdeaInput{Title: "spike", Content: "try sqlite"})
	require.NoError(t, err)
	assert.False(t, idea.IsPinned)
	assert.Equal(t, model.DefaultColor, idea.Color)

	pinned, err := ideas.SetPinned(ctx, idea.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	content := "try postgres"
	updated, err := ideas.Update(ctx, idea.ID, IdeaPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "try postgres", updated.Content)
	assert.True(t, updated.IsPinned)

	unpinned, err := ideas.SetPinned(ctx, idea.ID, false)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)

	require.NoError(t, ideas.Delete(ctx, idea.ID))
	_, err = ideas.Get(ctx, idea.ID)
	assert.True(t, gateway.IsNotFound(err))
}

func TestConvertToTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seed(t, "ideas", map[string]any{"title": "Dark mode", "content": "follow the system theme", "color": "#123456"})

	task, err := newIdeas(f).ConvertToTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dark mode", task.Title)
	assert.Equal(t, "follow the system theme", task.Description)
	assert.Equal(t, "#123456", task.Color)
	assert.Equal(t, model.StatusTodo, task.Status)

	assert.Empty(t, f.store.Rows(t, "ideas"))
	assert.Len(t, f.store.Rows(t, "tasks"), 1)
}

func TestConvertMissingIdeaWritesNothing(t *testing.T) {
	f := newFixture(t)

	task, err := newIdeas(f).ConvertToTask(context.Background(), "missing")
	assert.Nil(t, task)
	assert.True(t, gateway.IsNotFound(err))
	assert.Empty(t, f.store.Writes())
}

func TestConvertDeleteFailureKeepsBoth(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "ideas", map[string]any{"title": "Dark mode"})

	f.store.FailNext(http.MethodDelete, "ideas", http.StatusInternalServerError)
	task, err := newIdeas(f).ConvertToTask(context.Background(), id)
	require.NotNil(t, task)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "convert idea", partial.Op)
	assert.Equal(t, []string{"create task " + task.ID}, partial.Applied)
	assert.Equal(t, "delete idea "+id, partial.Failed)

	assert.Len(t, f.store.Rows(t, "ideas"), 1)
	assert.Len(t, f.store.Rows(t, "tasks"), 1)
}
