package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/query"
)

// Ideas is the gateway-backed IdeaRepository.
type Ideas struct {
	r     gateway.Requester
	tasks TaskRepository
}

// NewIdeas creates an idea repository. tasks receives converted ideas.
func NewIdeas(r gateway.Requester, tasks TaskRepository) *Ideas {
	return &Ideas{r: r, tasks: tasks}
}

// List returns ideas pinned first, then most recently updated. A non-empty
// search matches title or content case-insensitively.
func (i *Ideas) List(ctx context.Context, search string) ([]model.Idea, error) {
	q := query.New().
		Order("is_pinned", query.Desc).
		Order("updated_at", query.Desc).
		Search(search, "title", "content")

	ideas, err := fetch[model.Idea](ctx, i.r, tableIdeas, q)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	return ideas, nil
}

// Get returns one idea.
func (i *Ideas) Get(ctx context.Context, id string) (*model.Idea, error) {
	rows, err := fetch[model.Idea](ctx, i.r, tableIdeas, byID(id))
	if err != nil {
		return nil, fmt.Errorf("getting idea %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "idea", ID: id}
	}
	return &rows[0], nil
}

// Create inserts an idea.
func (i *Ideas) Create(ctx context.Context, in IdeaInput) (*model.Idea, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("idea title must not be empty")
	}
	body := map[string]any{
		"title":     in.Title,
		"content":   in.Content,
		"color":     orDefault(in.Color, model.DefaultColor),
		"is_pinned": in.IsPinned,
	}

	rows, err := write[model.Idea](ctx, i.r, tableIdeas, http.MethodPost, body, nil)
	if err != nil {
		return nil, fmt.Errorf("creating idea: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating idea: no row returned")
	}
	return &rows[0], nil
}

// Update applies a partial update.
func (i *Ideas) Update(ctx context.Context, id string, patch IdeaPatch) (*model.Idea, error) {
	body := map[string]any{}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("idea title must not be empty")
		}
		body["title"] = *patch.Title
	}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Color != nil {
		body["color"] = *patch.Color
	}
	if patch.IsPinned != nil {
		body["is_pinned"] = *patch.IsPinned
	}
	if len(body) == 0 {
		return i.Get(ctx, id)
	}

	rows, err := write[model.Idea](ctx, i.r, tableIdeas, http.MethodPatch, body, byID(id))
	if err != nil {
		return nil, fmt.Errorf("updating idea %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "idea", ID: id}
	}
	return &rows[0], nil
}

// SetPinned pins or unpins an idea.
func (i *Ideas) SetPinned(ctx context.Context, id string, pinned bool) (*model.Idea, error) {
	return i.Update(ctx, id, IdeaPatch{IsPinned: &pinned})
}

// Delete removes an idea.
func (i *Ideas) Delete(ctx context.Context, id string) error {
	if _, err := i.r.Request(ctx, tableIdeas, http.MethodDelete, nil, byID(id)); err != nil {
		return fmt.Errorf("deleting idea %s: %w", id, err)
	}
	return nil
}

// ConvertToTask creates a todo task from the idea and then deletes the idea.
// A missing idea fails with *gateway.NotFoundError before anything is
// written. If the delete fails, the new task is returned with a
// *PartialError and both rows exist.
func (i *Ideas) ConvertToTask(ctx context.Context, id string) (*model.Task, error) {
	idea, err := i.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	task, err := i.tasks.Create(ctx, TaskInput{
		Title:       idea.Title,
		Description: idea.Content,
		Color:       idea.Color,
		Status:      model.StatusTodo,
	})
	if err != nil {
		return nil, fmt.Errorf("converting idea %s: %w", id, err)
	}

	progress := &steps{op: "convert idea"}
	progress.done("create task " + task.ID)

	if err := i.Delete(ctx, id); err != nil {
		return task, progress.fail("delete idea "+id, err)
	}
	return task, nil
}
