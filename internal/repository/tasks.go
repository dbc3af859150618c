package repository

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/query"
)

// Tasks is the gateway-backed TaskRepository.
type Tasks struct {
	r   gateway.Requester
	now func() time.Time
}

// NewTasks creates a task repository. A nil now uses time.Now for
// completed_at stamps.
func NewTasks(r gateway.Requester, now func() time.Time) *Tasks {
	if now == nil {
		now = time.Now
	}
	return &Tasks{r: r, now: now}
}

// List returns tasks by priority then newest first, each with its project
// name and tags attached. Every row costs up to three further requests.
func (t *Tasks) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := query.New().
		Order("priority", query.Desc).
		Order("created_at", query.Desc)
	if filter.Status != nil {
		q.Eq("status", *filter.Status)
	}
	if filter.ProjectID != nil {
		q.Eq("project_id", *filter.ProjectID)
	}
	if filter.TagID != nil {
		ids, err := taskIDsOfTag(ctx, t.r, *filter.TagID)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		if len(ids) == 0 {
			return []model.Task{}, nil
		}
		q.In("id", ids...)
	}

	tasks, err := fetch[model.Task](ctx, t.r, tableTasks, q)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	for i := range tasks {
		if err := t.enrich(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// Get returns one task with its project name and tags.
func (t *Tasks) Get(ctx context.Context, id string) (*model.Task, error) {
	task, err := t.row(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.enrich(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Create inserts a task and then attaches each requested tag with its own
// insert. If an attach fails the task stays created with the tags attached
// so far, and a *PartialError is returned alongside it.
func (t *Tasks) Create(ctx context.Context, in TaskInput) (*model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	status := orDefault(in.Status, model.StatusTodo)
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("invalid task status %q", status)
	}

	body := map[string]any{
		"title":       in.Title,
		"description": in.Description,
		"project_id":  in.ProjectID,
		"status":      status,
		"priority":    in.Priority,
		"color":       orDefault(in.Color, model.DefaultColor),
	}
	if in.DueDate != nil {
		body["due_date"] = in.DueDate.String()
	}
	if status == model.StatusDone {
		body["completed_at"] = t.now().UTC()
	}

	rows, err := write[model.Task](ctx, t.r, tableTasks, http.MethodPost, body, nil)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating task: no row returned")
	}
	task := &rows[0]

	progress := &steps{op: "create task"}
	progress.done("insert task " + task.ID)

	attached, err := t.attachTags(ctx, task.ID, dedupe(in.TagIDs), progress)
	task.Tags = attached
	if err != nil {
		return task, err
	}
	return task, nil
}

// Update applies a partial update.
//
// Moving a task into done stamps completed_at, but only when the stored
// status is not already done, so the first completion time is kept.
// completed_at is never cleared. A non-nil TagIDs replaces the tag set by
// deleting every association and inserting the new set; a failure partway
// returns the task together with a *PartialError.
func (t *Tasks) Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	body, err := t.patchBody(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	var task *model.Task
	if len(body) > 0 {
		rows, err := write[model.Task](ctx, t.r, tableTasks, http.MethodPatch, body, byID(id))
		if err != nil {
			return nil, fmt.Errorf("updating task %s: %w", id, err)
		}
		if len(rows) == 0 {
			return nil, &gateway.NotFoundError{Entity: "task", ID: id}
		}
		task = &rows[0]
	} else {
		task, err = t.row(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if patch.TagIDs == nil {
		if err := t.enrich(ctx, task); err != nil {
			return nil, err
		}
		return task, nil
	}

	progress := &steps{op: "update task"}
	if len(body) > 0 {
		progress.done("patch task " + id)
	}

	if _, err := t.r.Request(ctx, tableTaskTags, http.MethodDelete, nil, query.New().Eq("task_id", id)); err != nil {
		task.Tags = nil
		return task, progress.fail("clear tags of task "+id, err)
	}
	progress.done("clear tags of task " + id)

	attached, err := t.attachTags(ctx, id, dedupe(*patch.TagIDs), progress)
	task.Tags = attached
	if err != nil {
		return task, err
	}

	if err := t.attachProjectName(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task. The store removes its tag associations.
func (t *Tasks) Delete(ctx context.Context, id string) error {
	if _, err := t.r.Request(ctx, tableTasks, http.MethodDelete, nil, byID(id)); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// patchBody translates a TaskPatch into the PATCH payload, stamping
// completed_at on a first transition into done.
func (t *Tasks) patchBody(ctx context.Context, id string, patch TaskPatch) (map[string]any, error) {
	body := map[string]any{}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("task title must not be empty")
		}
		body["title"] = *patch.Title
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	switch {
	case patch.ClearProjectID:
		body["project_id"] = nil
	case patch.ProjectID != nil:
		body["project_id"] = *patch.ProjectID
	}
	switch {
	case patch.ClearDueDate:
		body["due_date"] = nil
	case patch.DueDate != nil:
		body["due_date"] = patch.DueDate.String()
	}
	if patch.Priority != nil {
		body["priority"] = *patch.Priority
	}
	if patch.Color != nil {
		body["color"] = *patch.Color
	}

	if patch.Status != nil {
		if !model.ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("invalid task status %q", *patch.Status)
		}
		body["status"] = *patch.Status

		if *patch.Status == model.StatusDone {
			current, err := t.row(ctx, id)
			if err != nil {
				return nil, err
			}
			if current.Status != model.StatusDone {
				body["completed_at"] = t.now().UTC()
			}
		}
	}

	return body, nil
}

// row fetches the bare task row.
func (t *Tasks) row(ctx context.Context, id string) (*model.Task, error) {
	rows, err := fetch[model.Task](ctx, t.r, tableTasks, byID(id))
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "task", ID: id}
	}
	return &rows[0], nil
}

// attachTags inserts one association per tag id, in order, and returns the
// tags that were attached.
func (t *Tasks) attachTags(ctx context.Context, taskID string, tagIDs []string, progress *steps) ([]model.Tag, error) {
	var attached []string
	for _, tagID := range tagIDs {
		link := model.TaskTag{TaskID: taskID, TagID: tagID}
		if _, err := t.r.Request(ctx, tableTaskTags, http.MethodPost, link, nil); err != nil {
			tags, lookupErr := t.tagsByID(ctx, attached)
			if lookupErr != nil {
				log.Printf("loading attached tags of task %s: %v", taskID, lookupErr)
				tags = nil
			}
			return tags, progress.fail("attach tag "+tagID, err)
		}
		progress.done("attach tag " + tagID)
		attached = append(attached, tagID)
	}
	return t.tagsByID(ctx, attached)
}

// enrich attaches the project name and tags to a task row.
func (t *Tasks) enrich(ctx context.Context, task *model.Task) error {
	if err := t.attachProjectName(ctx, task); err != nil {
		return err
	}

	links, err := fetch[idRow](ctx, t.r, tableTaskTags,
		query.New().Eq("task_id", task.ID).Select("tag_id"))
	if err != nil {
		return fmt.Errorf("getting tags of task %s: %w", task.ID, err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.TagID)
	}

	tags, err := t.tagsByID(ctx, ids)
	if err != nil {
		return err
	}
	task.Tags = tags
	return nil
}

func (t *Tasks) attachProjectName(ctx context.Context, task *model.Task) error {
	if task.ProjectID == nil || *task.ProjectID == "" {
		return nil
	}
	projects, err := fetch[model.Project](ctx, t.r, tableProjects,
		byID(*task.ProjectID).Select("id", "name"))
	if err != nil {
		return fmt.Errorf("getting project of task %s: %w", task.ID, err)
	}
	if len(projects) > 0 {
		task.ProjectName = projects[0].Name
	}
	return nil
}

// tagsByID fetches tags with one batched id=in.(...) call. No ids means no
// request and an empty slice.
func (t *Tasks) tagsByID(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	tags, err := fetch[model.Tag](ctx, t.r, tableTags, query.New().In("id", ids...))
	if err != nil {
		return nil, fmt.Errorf("getting tags %s: %w", strings.Join(ids, ","), err)
	}
	return tags, nil
}

