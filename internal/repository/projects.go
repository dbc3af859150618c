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

// Projects is the gateway-backed ProjectRepository.
type Projects struct {
	r gateway.Requester
}

// NewProjects creates a project repository.
func NewProjects(r gateway.Requester) *Projects {
	return &Projects{r: r}
}

// List returns projects newest first with task and completed counts, one
// count request per project.
func (p *Projects) List(ctx context.Context) ([]model.Project, error) {
	projects, err := fetch[model.Project](ctx, p.r, tableProjects,
		query.New().Order("created_at", query.Desc))
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	for i := range projects {
		tasks, err := fetch[idRow](ctx, p.r, tableTasks,
			query.New().Eq("project_id", projects[i].ID).Select("id", "status"))
		if err != nil {
			return nil, fmt.Errorf("counting tasks of project %s: %w", projects[i].ID, err)
		}
		projects[i].TaskCount = len(tasks)
		for _, t := range tasks {
			if t.Status == model.StatusDone {
				projects[i].CompletedCount++
			}
		}
	}
	return projects, nil
}

// Get returns one project without counters.
func (p *Projects) Get(ctx context.Context, id string) (*model.Project, error) {
	rows, err := fetch[model.Project](ctx, p.r, tableProjects, byID(id))
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "project", ID: id}
	}
	return &rows[0], nil
}

// Create inserts a project.
func (p *Projects) Create(ctx context.Context, in ProjectInput) (*model.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}
	body := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"color":       orDefault(in.Color, model.DefaultColor),
	}

	rows, err := write[model.Project](ctx, p.r, tableProjects, http.MethodPost, body, nil)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating project: no row returned")
	}
	return &rows[0], nil
}

// Update applies a partial update.
func (p *Projects) Update(ctx context.Context, id string, patch ProjectPatch) (*model.Project, error) {
	body := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("project name must not be empty")
		}
		body["name"] = *patch.Name
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.Color != nil {
		body["color"] = *patch.Color
	}
	if len(body) == 0 {
		return p.Get(ctx, id)
	}

	rows, err := write[model.Project](ctx, p.r, tableProjects, http.MethodPatch, body, byID(id))
	if err != nil {
		return nil, fmt.Errorf("updating project %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "project", ID: id}
	}
	return &rows[0], nil
}

// Delete removes a project. The store clears project_id on its tasks.
func (p *Projects) Delete(ctx context.Context, id string) error {
	if _, err := p.r.Request(ctx, tableProjects, http.MethodDelete, nil, byID(id)); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}
