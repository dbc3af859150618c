package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-05-15", "2024-05-15", false},
		{"2024-05-15T23:30:00+09:00", "2024-05-15", false},
		{"15/05/2024", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateJSON(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","due_date":"2024-06-01"}`), &task))
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2024-06-01", task.DueDate.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","due_date":null}`), &task))

	var d Date
	assert.Error(t, d.UnmarshalJSON([]byte(`20240601`)))
}

func TestTaskIsOverdue(t *testing.T) {
	due := NewDate(2024, 5, 15)
	west := time.FixedZone("EST", -5*3600)
	east := time.FixedZone("JST", 9*3600)

	tests := []struct {
		name   string
		status string
		now    time.Time
		want   bool
	}{
		{"due today west of UTC", StatusTodo, time.Date(2024, 5, 15, 20, 0, 0, 0, west), false},
		{"due today east of UTC", StatusTodo, time.Date(2024, 5, 15, 1, 0, 0, 0, east), false},
		{"day after", StatusInProgress, time.Date(2024, 5, 16, 0, 1, 0, 0, east), true},
		{"done is never overdue", StatusDone, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"archived is never overdue", StatusArchived, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{Status: tt.status, DueDate: &due}
			assert.Equal(t, tt.want, task.IsOverdue(tt.now))
		})
	}

	assert.False(t, Task{Status: StatusTodo}.IsOverdue(time.Now()), "no due date")
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("blocked"))
	assert.False(t, ValidStatus(""))
}

func TestSessionValid(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Valid())
	assert.False(t, (&Session{AccessToken: "t"}).Valid())
	assert.True(t, (&Session{AccessToken: "t", User: &User{ID: "u"}}).Valid())
}
