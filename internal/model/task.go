package model

import "time"

// Task status constants.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusArchived   = "archived"
)

// Statuses lists every valid task status in display order.
var Statuses = []string{StatusTodo, StatusInProgress, StatusDone, StatusArchived}

// DefaultColor is used for tasks, projects, tags and ideas without a color.
const DefaultColor = "#6750A4"

// Task is a unit of work owned by the signed-in user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   *string    `json:"project_id"`
	DueDate     *Date      `json:"due_date"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	Color       string     `json:"color"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// ProjectName and Tags are filled in by client-side joins; the tasks
	// table has no such columns.
	ProjectName string `json:"project_name,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// IsDone reports whether the task is currently in the done status.
func (t Task) IsDone() bool { return t.Status == StatusDone }

// IsOverdue reports whether the due date has passed for an open task.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone || t.Status == StatusArchived {
		return false
	}
	y, m, d := now.Date()
	return t.DueDate.Before(NewDate(y, m, d).Time)
}

// TagIDs returns the ids of the attached tags.
func (t Task) TagIDs() []string {
	ids := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// TaskTag is one row of the task/tag join table.
type TaskTag struct {
	TaskID string `json:"task_id"`
	TagID  string `json:"tag_id"`
}
