package model

import "time"

// Tag is a cross-cutting label for categorizing tasks.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`

	// UsageCount is the number of join rows referencing the tag.
	UsageCount int `json:"usage_count"`
}
