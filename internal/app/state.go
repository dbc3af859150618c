package app

import (
	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/report"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

// View is one tab of the application.
type View int

const (
	ViewTasks View = iota
	ViewProjects
	ViewTags
	ViewIdeas
	ViewReport
)

var viewNames = []string{"Tasks", "Projects", "Tags", "Ideas", "Report"}

func (v View) String() string {
	if int(v) < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// NoticeLevel grades a notification.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a dismissable notification.
type Notice struct {
	ID    int
	Level NoticeLevel
	Text  string
}

// State is the application state. It is a value: every With* method returns
// a new State and never modifies the receiver or the slices it shares.
type State struct {
	View   View
	Cursor int

	Tasks    []model.Task
	Projects []model.Project
	Tags     []model.Tag
	Ideas    []model.Idea
	Weekly   *report.Weekly

	// Filter narrows the task list.
	Filter repository.TaskFilter

	// Pending counts list loads that have not settled yet.
	Pending int

	Notices    []Notice
	nextNotice int
}

// Loaded reports whether every issued list load has settled.
func (s State) Loaded() bool {
	return s.Pending == 0
}

// WithPending marks n more loads as in flight.
func (s State) WithPending(n int) State {
	s.Pending += n
	return s
}

// settle marks one load as finished.
func (s State) settle() State {
	if s.Pending > 0 {
		s.Pending--
	}
	return s
}

// WithTasks replaces the task list.
func (s State) WithTasks(tasks []model.Task) State {
	s.Tasks = tasks
	return s.settle().clampCursor()
}

// WithProjects replaces the project list.
func (s State) WithProjects(projects []model.Project) State {
	s.Projects = projects
	return s.settle().clampCursor()
}

// WithTags replaces the tag list.
func (s State) WithTags(tags []model.Tag) State {
	s.Tags = tags
	return s.settle().clampCursor()
}

// WithIdeas replaces the idea list.
func (s State) WithIdeas(ideas []model.Idea) State {
	s.Ideas = ideas
	return s.settle().clampCursor()
}

// WithWeekly replaces the weekly report.
func (s State) WithWeekly(w *report.Weekly) State {
	s.Weekly = w
	return s.settle()
}

// WithFailedLoad settles a load that failed and records the error.
func (s State) WithFailedLoad(err error) State {
	return s.settle().WithError(err)
}

// WithView switches tabs and resets the cursor.
func (s State) WithView(v View) State {
	n := View(len(viewNames))
	s.View = ((v % n) + n) % n
	s.Cursor = 0
	return s
}

// WithFilter replaces the task filter.
func (s State) WithFilter(f repository.TaskFilter) State {
	s.Filter = f
	return s
}

// MoveCursor moves the selection within the current list.
func (s State) MoveCursor(delta int) State {
	s.Cursor += delta
	return s.clampCursor()
}

// WithNotice appends a notification.
func (s State) WithNotice(level NoticeLevel, text string) State {
	s.nextNotice++
	notices := make([]Notice, len(s.Notices), len(s.Notices)+1)
	copy(notices, s.Notices)
	s.Notices = append(notices, Notice{ID: s.nextNotice, Level: level, Text: text})
	return s
}

// WithError appends an error notification describing err.
func (s State) WithError(err error) State {
	return s.WithNotice(NoticeError, describe(err))
}

// Dismiss removes the notification with the given id.
func (s State) Dismiss(id int) State {
	notices := make([]Notice, 0, len(s.Notices))
	for _, n := range s.Notices {
		if n.ID != id {
			notices = append(notices, n)
		}
	}
	s.Notices = notices
	return s
}

// DismissLatest removes the most recent notification, if any.
func (s State) DismissLatest() State {
	if len(s.Notices) == 0 {
		return s
	}
	return s.Dismiss(s.Notices[len(s.Notices)-1].ID)
}

// rows returns the number of rows in the current view.
func (s State) rows() int {
	switch s.View {
	case ViewTasks:
		return len(s.Tasks)
	case ViewProjects:
		return len(s.Projects)
	case ViewTags:
		return len(s.Tags)
	case ViewIdeas:
		return len(s.Ideas)
	}
	return 0
}

func (s State) clampCursor() State {
	n := s.rows()
	switch {
	case n == 0:
		s.Cursor = 0
	case s.Cursor >= n:
		s.Cursor = n - 1
	case s.Cursor < 0:
		s.Cursor = 0
	}
	return s
}

// SelectedTask returns the task under the cursor on the task view.
func (s State) SelectedTask() (model.Task, bool) {
	if s.View != ViewTasks || s.Cursor >= len(s.Tasks) {
		return model.Task{}, false
	}
	return s.Tasks[s.Cursor], true
}

// SelectedProject returns the project under the cursor on the project view.
func (s State) SelectedProject() (model.Project, bool) {
	if s.View != ViewProjects || s.Cursor >= len(s.Projects) {
		return model.Project{}, false
	}
	return s.Projects[s.Cursor], true
}

// SelectedTag returns the tag under the cursor on the tag view.
func (s State) SelectedTag() (model.Tag, bool) {
	if s.View != ViewTags || s.Cursor >= len(s.Tags) {
		return model.Tag{}, false
	}
	return s.Tags[s.Cursor], true
}

// SelectedIdea returns the idea under the cursor on the idea view.
func (s State) SelectedIdea() (model.Idea, bool) {
	if s.View != ViewIdeas || s.Cursor >= len(s.Ideas) {
		return model.Idea{}, false
	}
	return s.Ideas[s.Cursor], true
}
