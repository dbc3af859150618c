// Package repository composes table calls into entity operations.
//
// The table API has no joins, so derived fields are filled in with one
// dependent lookup per row (project names and tags on tasks, counters on
// projects and tags). This fan-out is deliberate at the data scale the
// application targets and stays behind the interfaces below, so a batched
// implementation can replace it without touching callers.
package repository

import (
	"context"
	"net/http"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/query"
)

// Table names of the hosted store.
const (
	tableTasks    = "tasks"
	tableProjects = "projects"
	tableTags     = "tags"
	tableTaskTags = "task_tags"
	tableIdeas    = "ideas"
)

// TaskFilter narrows Tasks.List. Nil fields are not filtered on.
type TaskFilter struct {
	Status    *string
	ProjectID *string

	// TagID keeps only tasks carrying the tag. It costs one extra
	// task_tags lookup before the task query.
	TagID *string
}

// TaskInput is the payload of Tasks.Create.
type TaskInput struct {
	Title       string
	Description string
	ProjectID   *string
	DueDate     *model.Date
	Status      string // defaults to todo
	Priority    int
	Color       string // defaults to model.DefaultColor
	TagIDs      []string
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title          *string
	Description    *string
	ProjectID      *string
	ClearProjectID bool
	DueDate        *model.Date
	ClearDueDate   bool
	Status         *string
	Priority       *int
	Color          *string

	// TagIDs, when non-nil, replaces the whole tag set; an empty slice
	// removes every tag.
	TagIDs *[]string
}

// ProjectInput is the payload of Projects.Create.
type ProjectInput struct {
	Name        string
	Description string
	Color       string
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string
	Description *string
	Color       *string
}

// TagInput is the payload of Tags.Create.
type TagInput struct {
	Name  string
	Color string
}

// TagPatch is a partial tag update.
type TagPatch struct {
	Name  *string
	Color *string
}

// IdeaInput is the payload of Ideas.Create.
type IdeaInput struct {
	Title    string
	Content  string
	Color    string
	IsPinned bool
}

// IdeaPatch is a partial idea update.
type IdeaPatch struct {
	Title    *string
	Content  *string
	Color    *string
	IsPinned *bool
}

// TaskRepository manages tasks and their tag associations.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, in TaskInput) (*model.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id string) error
}

// ProjectRepository manages projects.
type ProjectRepository interface {
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, in ProjectInput) (*model.Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// TagRepository manages tags.
type TagRepository interface {
	List(ctx context.Context) ([]model.Tag, error)
	Get(ctx context.Context, id string) (*model.Tag, error)
	Create(ctx context.Context, in TagInput) (*model.Tag, error)
	Update(ctx context.Context, id string, patch TagPatch) (*model.Tag, error)
	Delete(ctx context.Context, id string) error

	// TaskIDs returns the ids of the tasks carrying the tag.
	TaskIDs(ctx context.Context, tagID string) ([]string, error)
}

// IdeaRepository manages ideas.
type IdeaRepository interface {
	List(ctx context.Context, search string) ([]model.Idea, error)
	Get(ctx context.Context, id string) (*model.Idea, error)
	Create(ctx context.Context, in IdeaInput) (*model.Idea, error)
	Update(ctx context.Context, id string, patch IdeaPatch) (*model.Idea, error)
	Delete(ctx context.Context, id string) error
	SetPinned(ctx context.Context, id string, pinned bool) (*model.Idea, error)
	ConvertToTask(ctx context.Context, id string) (*model.Task, error)
}

// fetch issues a GET and decodes the rows.
func fetch[T any](ctx context.Context, r gateway.Requester, table string, q *query.Query) ([]T, error) {
	raw, err := r.Request(ctx, table, http.MethodGet, nil, q)
	if err != nil {
		return nil, err
	}
	return gateway.DecodeRows[T](raw)
}

// write issues a POST or PATCH and decodes the returned rows.
func write[T any](ctx context.Context, r gateway.Requester, table, method string, body any, q *query.Query) ([]T, error) {
	raw, err := r.Request(ctx, table, method, body, q)
	if err != nil {
		return nil, err
	}
	return gateway.DecodeRows[T](raw)
}

// byID is the id=eq.<id> filter.
func byID(id string) *query.Query {
	return query.New().Eq("id", id)
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// idRow decodes rows projected with select=<column>.
type idRow struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	TagID  string `json:"tag_id"`
	Status string `json:"status"`
}
