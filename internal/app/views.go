package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/TOTORON9625/DevTodo/internal/chart"
	"github.com/TOTORON9625/DevTodo/internal/theme"
)

// View renders the full screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	status := m.user
	if !m.state.Loaded() {
		status = m.spinner.View() + " loading  " + status
	}
	header := m.layout.RenderHeader("DevTodo", status)
	tabs := m.layout.RenderTabs(viewNames, int(m.state.View))
	notices := m.renderNotices()

	var content string
	switch {
	case m.form.Active():
		content = m.form.View()
	case m.adding:
		verb := "New "
		if m.renaming != "" {
			verb = "Rename "
		}
		content = theme.HeaderStyle.Render(verb+strings.TrimSuffix(strings.ToLower(m.state.View.String()), "s")) +
			"\n\n" + theme.BorderStyle.Render(m.input.View())
	case m.showHelp:
		content = m.help.FullHelpView(m.keys.FullHelp())
	default:
		content = m.renderContent()
	}
	content = clip(content, m.layout.ContentHeight(strings.Count(notices, "\n")+boolLines(notices)))

	bar := m.layout.RenderStatusBar(m.help.ShortHelpView(m.keys.ShortHelp()))
	return m.layout.RenderWithFrame(header, tabs, notices, content, bar)
}

func (m Model) renderNotices() string {
	lines := make([]string, 0, len(m.state.Notices))
	for _, n := range m.state.Notices {
		if n.Level == NoticeError {
			lines = append(lines, theme.ErrorNoticeStyle.Render(n.Text))
		} else {
			lines = append(lines, theme.InfoNoticeStyle.Render(n.Text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderContent() string {
	switch m.state.View {
	case ViewTasks:
		return m.renderTasks()
	case ViewProjects:
		return m.renderProjects()
	case ViewTags:
		return m.renderTags()
	case ViewIdeas:
		return m.renderIdeas()
	case ViewReport:
		return m.renderReport()
	}
	return ""
}

func (m Model) renderTasks() string {
	var b strings.Builder
	if label := m.filterLabel(); label != "" {
		b.WriteString(theme.DimmedStyle.Render(label+"  (f clears)") + "\n")
	}
	if len(m.state.Tasks) == 0 {
		b.WriteString(emptyLine("No tasks. Press n to add one."))
		return b.String()
	}

	now := time.Now()
	for i, t := range m.state.Tasks {
		line := theme.Swatch(t.Color) + " " +
			theme.StatusStyle(t.Status).Render(t.Status) + " " +
			theme.PriorityStyle(t.Priority).Render(fmt.Sprintf("P%d", t.Priority)) + " " +
			t.Title
		if t.ProjectName != "" {
			line += theme.DimmedStyle.Render("  [" + t.ProjectName + "]")
		}
		for _, tag := range t.Tags {
			line += " " + theme.DimmedStyle.Render("#"+tag.Name)
		}
		if t.DueDate != nil {
			due := "due " + t.DueDate.String()
			if t.IsOverdue(now) {
				line += "  " + theme.OverdueStyle.Render(due)
			} else {
				line += "  " + theme.DimmedStyle.Render(due)
			}
		}
		b.WriteString(m.row(i, line) + "\n")
	}
	return b.String()
}

// filterLabel describes the active task filter by name.
func (m Model) filterLabel() string {
	f := m.state.Filter
	var parts []string
	if f.Status != nil {
		parts = append(parts, "status: "+*f.Status)
	}
	if f.ProjectID != nil {
		name := *f.ProjectID
		for _, p := range m.state.Projects {
			if p.ID == name {
				name = p.Name
				break
			}
		}
		parts = append(parts, "project: "+name)
	}
	if f.TagID != nil {
		name := *f.TagID
		for _, t := range m.state.Tags {
			if t.ID == name {
				name = t.Name
				break
			}
		}
		parts = append(parts, "tag: #"+name)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderProjects() string {
	if len(m.state.Projects) == 0 {
		return emptyLine("No projects. Press n to add one.")
	}
	var b strings.Builder
	for i, p := range m.state.Projects {
		line := fmt.Sprintf("%s %s  %s",
			theme.Swatch(p.Color), p.Name,
			theme.DimmedStyle.Render(fmt.Sprintf("%d/%d done (%.0f%%)", p.CompletedCount, p.TaskCount, p.Progress()*100)))
		b.WriteString(m.row(i, line) + "\n")
	}
	return b.String()
}

func (m Model) renderTags() string {
	if len(m.state.Tags) == 0 {
		return emptyLine("No tags. Press n to add one.")
	}
	var b strings.Builder
	for i, t := range m.state.Tags {
		line := fmt.Sprintf("%s #%s  %s", theme.Swatch(t.Color), t.Name,
			theme.DimmedStyle.Render(fmt.Sprintf("%d tasks", t.UsageCount)))
		b.WriteString(m.row(i, line) + "\n")
	}
	return b.String()
}

func (m Model) renderIdeas() string {
	if len(m.state.Ideas) == 0 {
		return emptyLine("No ideas. Press n to add one.")
	}
	var b strings.Builder
	for i, idea := range m.state.Ideas {
		pin := " "
		if idea.IsPinned {
			pin = "*"
		}
		line := fmt.Sprintf("%s %s %s", pin, theme.Swatch(idea.Color), idea.Title)
		if idea.Content != "" {
			line += "  " + theme.DimmedStyle.Render(firstLine(idea.Content))
		}
		b.WriteString(m.row(i, line) + "\n")
	}
	return b.String()
}

func (m Model) renderReport() string {
	w := m.state.Weekly
	if w == nil || m.services.Reports == nil {
		return emptyLine("No report loaded. Press r to refresh.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", theme.HeaderStyle.Render(w.Period.String()))
	fmt.Fprintf(&b, "completed %d  created %d  in progress %d  rate %d%%\n\n",
		w.CompletedCount, w.CreatedCount, w.InProgressCount, w.CompletionRate)

	sink := chart.NewTerminalSink(&b, m.layout.ContentWidth()/2)
	if err := m.services.Reports.DrawWeekly(sink, w); err != nil {
		fmt.Fprintf(&b, "%s\n", theme.ErrorNoticeStyle.Render(err.Error()))
	}
	return b.String()
}

func (m Model) row(i int, line string) string {
	if i == m.state.Cursor {
		return theme.SelectedItemStyle.Render("> " + line)
	}
	return theme.ListItemStyle.Render("  " + line)
}

func emptyLine(s string) string {
	return theme.DimmedStyle.Render(s)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// clip keeps at most n lines of s.
func clip(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func boolLines(s string) int {
	if s == "" {
		return 0
	}
	return 1
}
