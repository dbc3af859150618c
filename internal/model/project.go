package model

import "time"

// Project is a grouping container for related tasks.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// TaskCount and CompletedCount are computed by counting the project's
	// tasks; they are not stored.
	TaskCount      int `json:"task_count"`
	CompletedCount int `json:"completed_count"`
}

// Progress returns the completed share of the project's tasks in [0, 1].
func (p Project) Progress() float64 {
	if p.TaskCount == 0 {
		return 0
	}
	return float64(p.CompletedCount) / float64(p.TaskCount)
}
