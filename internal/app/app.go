// Package app is the terminal user interface.
package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TOTORON9625/DevTodo/internal/keys"
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/repository"
	"github.com/TOTORON9625/DevTodo/internal/theme"
	"github.com/TOTORON9625/DevTodo/internal/ui"
	"github.com/TOTORON9625/DevTodo/internal/ui/taskform"
)

// statusCycle is the order the task status filter steps through; the empty
// string means no filter.
var statusCycle = append([]string{""}, model.Statuses...)

// Model is the root Bubble Tea model. It owns the application State and
// replaces it wholesale on every message.
type Model struct {
	state    State
	services Services
	user     string

	keys     *keys.KeyMap
	layout   ui.Layout
	spinner  spinner.Model
	help     help.Model
	form     taskform.Model
	input    textinput.Model
	adding   bool
	// renaming is the id of the row the input renames; empty while adding.
	renaming string
	showHelp bool
	ready    bool
}

// New creates the root model. user is shown in the header.
func New(services Services, user string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(theme.ColorAccent)

	in := textinput.New()
	in.Placeholder = "Name"
	in.CharLimit = 200

	return Model{
		state:    State{}.WithPending(4),
		services: services,
		user:     user,
		keys:     keys.DefaultKeyMap(),
		layout:   ui.NewLayout(80, 24),
		spinner:  sp,
		help:     help.New(),
		form:     taskform.New(80, 24),
		input:    in,
	}
}

// State returns the current application state.
func (m Model) State() State {
	return m.state
}

// Init starts the spinner and the four initial list loads counted as
// pending by New.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadAll())
}

// refresh reloads every list, plus the weekly report when it is shown.
func (m *Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{m.loadAll()}
	m.state = m.state.WithPending(4)
	if m.state.View == ViewReport && m.services.Reports != nil {
		m.state = m.state.WithPending(1)
		cmds = append(cmds, m.loadWeekly())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and replaces the state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.help.Width = msg.Width
		m.form.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight(0))
		if m.form.Active() {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tasksLoadedMsg:
		if msg.err != nil {
			m.state = m.state.WithFailedLoad(msg.err)
		} else {
			m.state = m.state.WithTasks(msg.tasks)
		}
		return m, nil

	case projectsLoadedMsg:
		if msg.err != nil {
			m.state = m.state.WithFailedLoad(msg.err)
		} else {
			m.state = m.state.WithProjects(msg.projects)
		}
		return m, nil

	case tagsLoadedMsg:
		if msg.err != nil {
			m.state = m.state.WithFailedLoad(msg.err)
		} else {
			m.state = m.state.WithTags(msg.tags)
		}
		return m, nil

	case ideasLoadedMsg:
		if msg.err != nil {
			m.state = m.state.WithFailedLoad(msg.err)
		} else {
			m.state = m.state.WithIdeas(msg.ideas)
		}
		return m, nil

	case weeklyLoadedMsg:
		if msg.err != nil {
			m.state = m.state.WithFailedLoad(msg.err)
		} else {
			m.state = m.state.WithWeekly(msg.weekly)
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.state = m.state.WithError(msg.err)
		} else {
			m.state = m.state.WithNotice(NoticeInfo, msg.text)
		}
		cmd := m.refresh()
		return m, cmd

	case taskform.SubmittedMsg:
		return m, m.saveTask(msg.TaskID, msg.Input)

	case taskform.CancelMsg:
		return m, nil

	case tea.KeyMsg:
		if m.form.Active() {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		if m.adding {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}

	if m.form.Active() {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.state = m.state.DismissLatest()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m.switchView(m.state.View + 1)

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchView(m.state.View - 1)

	case key.Matches(msg, m.keys.Down):
		m.state = m.state.MoveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.state = m.state.MoveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		return m.startNew()

	case key.Matches(msg, m.keys.Edit):
		return m.startEdit()

	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()

	case key.Matches(msg, m.keys.ToggleDone):
		if t, ok := m.state.SelectedTask(); ok {
			return m, m.toggleDone(t)
		}

	case key.Matches(msg, m.keys.CycleStatus):
		if m.state.View == ViewTasks {
			m.state = m.state.WithFilter(nextStatusFilter(m.state.Filter)).WithPending(1)
			return m, m.loadTasks()
		}

	case key.Matches(msg, m.keys.Open):
		return m.openSelected()

	case key.Matches(msg, m.keys.ClearFilter):
		if m.state.View == ViewTasks && m.state.Filter != (repository.TaskFilter{}) {
			m.state = m.state.WithFilter(repository.TaskFilter{}).WithPending(1)
			return m, m.loadTasks()
		}

	case key.Matches(msg, m.keys.Pin):
		if i, ok := m.state.SelectedIdea(); ok {
			return m, m.togglePin(i)
		}

	case key.Matches(msg, m.keys.Convert):
		if i, ok := m.state.SelectedIdea(); ok {
			return m, m.convertIdea(i)
		}
	}
	return m, nil
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.state = m.state.WithView(v)
	if m.state.View == ViewReport && m.state.Weekly == nil && m.services.Reports != nil {
		m.state = m.state.WithPending(1)
		return m, m.loadWeekly()
	}
	return m, nil
}

func (m Model) startNew() (tea.Model, tea.Cmd) {
	switch m.state.View {
	case ViewTasks:
		m.form.SetOptions(m.state.Projects, m.state.Tags)
		cmd := m.form.StartCreate()
		return m, cmd
	case ViewProjects, ViewTags, ViewIdeas:
		m.adding = true
		m.renaming = ""
		m.input.Reset()
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

// startEdit opens the task form on the Tasks tab and the name input,
// prefilled, on the other lists.
func (m Model) startEdit() (tea.Model, tea.Cmd) {
	var id, name string
	switch m.state.View {
	case ViewTasks:
		if t, ok := m.state.SelectedTask(); ok {
			m.form.SetOptions(m.state.Projects, m.state.Tags)
			cmd := m.form.StartEdit(t)
			return m, cmd
		}
		return m, nil
	case ViewProjects:
		if p, ok := m.state.SelectedProject(); ok {
			id, name = p.ID, p.Name
		}
	case ViewTags:
		if t, ok := m.state.SelectedTag(); ok {
			id, name = t.ID, t.Name
		}
	case ViewIdeas:
		if i, ok := m.state.SelectedIdea(); ok {
			id, name = i.ID, i.Title
		}
	}
	if id == "" {
		return m, nil
	}

	m.adding = true
	m.renaming = id
	m.input.SetValue(name)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

// openSelected shows the tasks of the selected project or tag. The status
// filter is kept.
func (m Model) openSelected() (tea.Model, tea.Cmd) {
	f := m.state.Filter
	switch m.state.View {
	case ViewProjects:
		p, ok := m.state.SelectedProject()
		if !ok {
			return m, nil
		}
		f.ProjectID, f.TagID = &p.ID, nil
	case ViewTags:
		t, ok := m.state.SelectedTag()
		if !ok {
			return m, nil
		}
		f.ProjectID, f.TagID = nil, &t.ID
	default:
		return m, nil
	}

	m.state = m.state.WithView(ViewTasks).WithFilter(f).WithPending(1)
	return m, m.loadTasks()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.renaming = ""
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		id := m.renaming
		m.adding = false
		m.renaming = ""
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		if id != "" {
			return m, m.rename(id, text)
		}
		return m, m.quickAdd(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// nextStatusFilter steps the status filter through every status and back
// to no filter.
func nextStatusFilter(f repository.TaskFilter) repository.TaskFilter {
	current := ""
	if f.Status != nil {
		current = *f.Status
	}
	for i, s := range statusCycle {
		if s == current {
			next := statusCycle[(i+1)%len(statusCycle)]
			if next == "" {
				f.Status = nil
			} else {
				f.Status = &next
			}
			return f
		}
	}
	f.Status = nil
	return f
}
