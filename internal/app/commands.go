package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/report"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

// Services are the repositories the UI reads and writes through.
type Services struct {
	Tasks    repository.TaskRepository
	Projects repository.ProjectRepository
	Tags     repository.TagRepository
	Ideas    repository.IdeaRepository
	Reports  *report.Aggregator
}

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

type tagsLoadedMsg struct {
	tags []model.Tag
	err  error
}

type ideasLoadedMsg struct {
	ideas []model.Idea
	err   error
}

type weeklyLoadedMsg struct {
	weekly *report.Weekly
	err    error
}

// mutationDoneMsg is sent after any write. A successful write reloads
// every list; a failed one is reported and also reloads, since multi-step
// writes may have applied partially.
type mutationDoneMsg struct {
	text string
	err  error
}

// loadAll issues the four list loads concurrently.
func (m Model) loadAll() tea.Cmd {
	return tea.Batch(
		m.loadTasks(),
		m.loadProjects(),
		m.loadTags(),
		m.loadIdeas(),
	)
}

func (m Model) loadTasks() tea.Cmd {
	s, f := m.services, m.state.Filter
	return func() tea.Msg {
		tasks, err := s.Tasks.List(context.Background(), f)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) loadProjects() tea.Cmd {
	s := m.services
	return func() tea.Msg {
		projects, err := s.Projects.List(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (m Model) loadTags() tea.Cmd {
	s := m.services
	return func() tea.Msg {
		tags, err := s.Tags.List(context.Background())
		return tagsLoadedMsg{tags: tags, err: err}
	}
}

func (m Model) loadIdeas() tea.Cmd {
	s := m.services
	return func() tea.Msg {
		ideas, err := s.Ideas.List(context.Background(), "")
		return ideasLoadedMsg{ideas: ideas, err: err}
	}
}

func (m Model) loadWeekly() tea.Cmd {
	s := m.services
	return func() tea.Msg {
		w, err := s.Reports.Weekly(context.Background())
		return weeklyLoadedMsg{weekly: w, err: err}
	}
}

// mutate runs a write and reports its outcome.
func mutate(text string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{text: text, err: fn(context.Background())}
	}
}

func (m Model) saveTask(id string, in repository.TaskInput) tea.Cmd {
	tasks := m.services.Tasks
	if id == "" {
		return mutate("Task created", func(ctx context.Context) error {
			_, err := tasks.Create(ctx, in)
			return err
		})
	}
	patch := repository.TaskPatch{
		Title:          &in.Title,
		Description:    &in.Description,
		ProjectID:      in.ProjectID,
		ClearProjectID: in.ProjectID == nil,
		DueDate:        in.DueDate,
		ClearDueDate:   in.DueDate == nil,
		Priority:       &in.Priority,
		TagIDs:         &in.TagIDs,
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	if in.Color != "" {
		patch.Color = &in.Color
	}
	return mutate("Task updated", func(ctx context.Context) error {
		_, err := tasks.Update(ctx, id, patch)
		return err
	})
}

func (m Model) toggleDone(task model.Task) tea.Cmd {
	status := model.StatusDone
	text := "Task completed"
	if task.IsDone() {
		status = model.StatusTodo
		text = "Task reopened"
	}
	tasks := m.services.Tasks
	return mutate(text, func(ctx context.Context) error {
		_, err := tasks.Update(ctx, task.ID, repository.TaskPatch{Status: &status})
		return err
	})
}

func (m Model) deleteSelected() tea.Cmd {
	st, s := m.state, m.services
	if t, ok := st.SelectedTask(); ok {
		return mutate("Task deleted", func(ctx context.Context) error { return s.Tasks.Delete(ctx, t.ID) })
	}
	if p, ok := st.SelectedProject(); ok {
		return mutate("Project deleted", func(ctx context.Context) error { return s.Projects.Delete(ctx, p.ID) })
	}
	if t, ok := st.SelectedTag(); ok {
		return mutate("Tag deleted", func(ctx context.Context) error { return s.Tags.Delete(ctx, t.ID) })
	}
	if i, ok := st.SelectedIdea(); ok {
		return mutate("Idea deleted", func(ctx context.Context) error { return s.Ideas.Delete(ctx, i.ID) })
	}
	return nil
}

// quickAdd creates a project, tag or idea from a single line of text.
func (m Model) quickAdd(text string) tea.Cmd {
	s := m.services
	switch m.state.View {
	case ViewProjects:
		return mutate("Project created", func(ctx context.Context) error {
			_, err := s.Projects.Create(ctx, repository.ProjectInput{Name: text})
			return err
		})
	case ViewTags:
		return mutate("Tag created", func(ctx context.Context) error {
			_, err := s.Tags.Create(ctx, repository.TagInput{Name: text})
			return err
		})
	case ViewIdeas:
		return mutate("Idea created", func(ctx context.Context) error {
			_, err := s.Ideas.Create(ctx, repository.IdeaInput{Title: text})
			return err
		})
	}
	return nil
}

// rename changes the name of a project or tag, or the title of an idea.
func (m Model) rename(id, text string) tea.Cmd {
	s := m.services
	switch m.state.View {
	case ViewProjects:
		return mutate("Project renamed", func(ctx context.Context) error {
			_, err := s.Projects.Update(ctx, id, repository.ProjectPatch{Name: &text})
			return err
		})
	case ViewTags:
		return mutate("Tag renamed", func(ctx context.Context) error {
			_, err := s.Tags.Update(ctx, id, repository.TagPatch{Name: &text})
			return err
		})
	case ViewIdeas:
		return mutate("Idea renamed", func(ctx context.Context) error {
			_, err := s.Ideas.Update(ctx, id, repository.IdeaPatch{Title: &text})
			return err
		})
	}
	return nil
}

func (m Model) togglePin(idea model.Idea) tea.Cmd {
	ideas := m.services.Ideas
	return mutate("Idea updated", func(ctx context.Context) error {
		_, err := ideas.SetPinned(ctx, idea.ID, !idea.IsPinned)
		return err
	})
}

func (m Model) convertIdea(idea model.Idea) tea.Cmd {
	ideas := m.services.Ideas
	return mutate("Idea converted to a task", func(ctx context.Context) error {
		_, err := ideas.ConvertToTask(ctx, idea.ID)
		return err
	})
}
