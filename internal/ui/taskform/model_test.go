package taskform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

func TestStartEditBindsTask(t *testing.T) {
	project := "p1"
	due := model.NewDate(2024, 6, 30)
	m := New(80, 24)
	m.SetOptions([]model.Project{{ID: "p1", Name: "Website"}}, []model.Tag{{ID: "g1", Name: "go"}})

	m.StartEdit(model.Task{
		ID:        "t1",
		Title:     "ship",
		Status:    model.StatusInProgress,
		Priority:  2,
		Color:     "#123456",
		ProjectID: &project,
		DueDate:   &due,
		Tags:      []model.Tag{{ID: "g1"}},
	})
	require.True(t, m.Active())

	in := m.input()
	assert.Equal(t, "ship", in.Title)
	assert.Equal(t, model.StatusInProgress, in.Status)
	assert.Equal(t, 2, in.Priority)
	assert.Equal(t, "#123456", in.Color)
	require.NotNil(t, in.ProjectID)
	assert.Equal(t, "p1", *in.ProjectID)
	require.NotNil(t, in.DueDate)
	assert.Equal(t, "2024-06-30", in.DueDate.String())
	assert.Equal(t, []string{"g1"}, in.TagIDs)

	msg := m.submit()().(SubmittedMsg)
	assert.Equal(t, "t1", msg.TaskID)
}

func TestStartCreateResetsBindings(t *testing.T) {
	m := New(80, 24)
	m.StartEdit(model.Task{ID: "t1", Title: "old", Tags: []model.Tag{{ID: "g1"}}})
	m.StartCreate()

	in := m.input()
	assert.Empty(t, in.Title)
	assert.Equal(t, model.StatusTodo, in.Status)
	assert.Equal(t, model.DefaultColor, in.Color)
	assert.Nil(t, in.ProjectID)
	assert.Nil(t, in.DueDate)
	assert.Empty(t, in.TagIDs)
	assert.Empty(t, m.submit()().(SubmittedMsg).TaskID)
}

func TestValidateOptionalDate(t *testing.T) {
	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2024-02-29"))
	assert.Error(t, validateOptionalDate("2024-02-30"))
	assert.Error(t, validateOptionalDate("tomorrow"))
	assert.Error(t, validateOptionalDate("2024-02-29T10:00:00Z"))
}

func TestValidateRequired(t *testing.T) {
	check := validateRequired("Title")
	assert.Error(t, check("  "))
	assert.NoError(t, check("x"))
}
