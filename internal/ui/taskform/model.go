// Package taskform is the create/edit form for tasks.
package taskform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/repository"
	"github.com/TOTORON9625/DevTodo/internal/theme"
)

// SubmittedMsg is dispatched when the form completes. TaskID is empty for
// a new task.
type SubmittedMsg struct {
	TaskID string
	Input  repository.TaskInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// bindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type bindings struct {
	title       string
	description string
	priority    int
	dueDate     string
	status      string
	projectID   string
	color       string
	tagIDs      []string
}

// Model is the Bubble Tea model for the task form.
type Model struct {
	form     *huh.Form
	b        *bindings
	taskID   string
	projects []model.Project
	tags     []model.Tag
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		b:      &bindings{status: model.StatusTodo},
		width:  width,
		height: height,
	}
}

// SetOptions sets the projects and tags offered by the selectors.
func (m *Model) SetOptions(projects []model.Project, tags []model.Tag) {
	m.projects = projects
	m.tags = tags
}

// Active reports whether a form is being filled in.
func (m Model) Active() bool {
	return m.form != nil
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.taskID = ""
	*m.b = bindings{status: model.StatusTodo, color: model.DefaultColor}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.taskID = task.ID
	*m.b = bindings{
		title:       task.Title,
		description: task.Description,
		priority:    task.Priority,
		status:      task.Status,
		color:       task.Color,
		tagIDs:      task.TagIDs(),
	}
	if task.DueDate != nil {
		m.b.dueDate = task.DueDate.String()
	}
	if task.ProjectID != nil {
		m.b.projectID = *task.ProjectID
	}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submit()
		m.form = nil
		return m, submit
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New task"
	if m.taskID != "" {
		titleText = "Edit task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.b.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.b.description),
		huh.NewSelect[string]().
			Title("Status").
			Options(statusOptions()...).
			Value(&m.b.status),
		huh.NewSelect[int]().
			Title("Priority").
			Options(
				huh.NewOption("Urgent", 3),
				huh.NewOption("High", 2),
				huh.NewOption("Normal", 1),
				huh.NewOption("None", 0),
			).
			Value(&m.b.priority),
		huh.NewInput().
			Title("Due date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.b.dueDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Color").
			Placeholder(model.DefaultColor).
			Value(&m.b.color),
		m.projectField(),
	}
	if tagField := m.tagField(); tagField != nil {
		fields = append(fields, tagField)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func statusOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(model.Statuses))
	for i, s := range model.Statuses {
		opts[i] = huh.NewOption(s, s)
	}
	return opts
}

func (m *Model) projectField() huh.Field {
	opts := []huh.Option[string]{
		huh.NewOption("None", ""),
	}
	for _, p := range m.projects {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return huh.NewSelect[string]().
		Title("Project").
		Options(opts...).
		Value(&m.b.projectID)
}

func (m *Model) tagField() huh.Field {
	if len(m.tags) == 0 {
		return nil
	}
	opts := make([]huh.Option[string], len(m.tags))
	for i, t := range m.tags {
		opts[i] = huh.NewOption(t.Name, t.ID)
	}
	return huh.NewMultiSelect[string]().
		Title("Tags").
		Options(opts...).
		Value(&m.b.tagIDs)
}

func (m Model) submit() tea.Cmd {
	msg := SubmittedMsg{TaskID: m.taskID, Input: m.input()}
	return func() tea.Msg { return msg }
}

// input converts the bound values. The date was validated by the form.
func (m Model) input() repository.TaskInput {
	in := repository.TaskInput{
		Title:       strings.TrimSpace(m.b.title),
		Description: m.b.description,
		Status:      m.b.status,
		Priority:    m.b.priority,
		Color:       strings.TrimSpace(m.b.color),
		TagIDs:      append([]string{}, m.b.tagIDs...),
	}
	if m.b.projectID != "" {
		id := m.b.projectID
		in.ProjectID = &id
	}
	if d, err := model.ParseDate(strings.TrimSpace(m.b.dueDate)); err == nil {
		in.DueDate = &d
	}
	return in
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseDate(s); err != nil || len(s) != len(model.DateLayout) {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
