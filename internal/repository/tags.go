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

// Tags is the gateway-backed TagRepository.
type Tags struct {
	r gateway.Requester
}

// NewTags creates a tag repository.
func NewTags(r gateway.Requester) *Tags {
	return &Tags{r: r}
}

// List returns tags by name with usage counts, one count request per tag.
func (g *Tags) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := fetch[model.Tag](ctx, g.r, tableTags, query.New().Order("name", query.Asc))
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	for i := range tags {
		ids, err := g.TaskIDs(ctx, tags[i].ID)
		if err != nil {
			return nil, err
		}
		tags[i].UsageCount = len(ids)
	}
	return tags, nil
}

// TaskIDs implements TagRepository.
func (g *Tags) TaskIDs(ctx context.Context, tagID string) ([]string, error) {
	return taskIDsOfTag(ctx, g.r, tagID)
}

// taskIDsOfTag returns the ids of the tasks linked to tagID.
func taskIDsOfTag(ctx context.Context, r gateway.Requester, tagID string) ([]string, error) {
	links, err := fetch[idRow](ctx, r, tableTaskTags,
		query.New().Eq("tag_id", tagID).Select("task_id"))
	if err != nil {
		return nil, fmt.Errorf("getting tasks of tag %s: %w", tagID, err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.TaskID)
	}
	return ids, nil
}

// Get returns one tag without its usage count.
func (g *Tags) Get(ctx context.Context, id string) (*model.Tag, error) {
	rows, err := fetch[model.Tag](ctx, g.r, tableTags, byID(id))
	if err != nil {
		return nil, fmt.Errorf("getting tag %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "tag", ID: id}
	}
	return &rows[0], nil
}

// Create inserts a tag.
func (g *Tags) Create(ctx context.Context, in TagInput) (*model.Tag, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("tag name must not be empty")
	}
	body := map[string]any{
		"name":  in.Name,
		"color": orDefault(in.Color, model.DefaultColor),
	}

	rows, err := write[model.Tag](ctx, g.r, tableTags, http.MethodPost, body, nil)
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating tag: no row returned")
	}
	return &rows[0], nil
}

// Update applies a partial update.
func (g *Tags) Update(ctx context.Context, id string, patch TagPatch) (*model.Tag, error) {
	body := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("tag name must not be empty")
		}
		body["name"] = *patch.Name
	}
	if patch.Color != nil {
		body["color"] = *patch.Color
	}
	if len(body) == 0 {
		return g.Get(ctx, id)
	}

	rows, err := write[model.Tag](ctx, g.r, tableTags, http.MethodPatch, body, byID(id))
	if err != nil {
		return nil, fmt.Errorf("updating tag %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, &gateway.NotFoundError{Entity: "tag", ID: id}
	}
	return &rows[0], nil
}

// Delete removes a tag. The store removes its task associations.
func (g *Tags) Delete(ctx context.Context, id string) error {
	if _, err := g.r.Request(ctx, tableTags, http.MethodDelete, nil, byID(id)); err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	return nil
}
