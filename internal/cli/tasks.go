package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

func newTasksCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and change tasks",
	}
	cmd.AddCommand(newTasksListCmd(a))
	cmd.AddCommand(newTasksAddCmd(a))
	cmd.AddCommand(newTasksDoneCmd(a))
	cmd.AddCommand(newTasksEditCmd(a))
	cmd.AddCommand(newTasksRmCmd(a))
	return cmd
}

func newTasksListCmd(a *App) *cobra.Command {
	var status, project, tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by priority, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			var filter repository.TaskFilter
			if status != "" {
				filter.Status = &status
			}
			if project != "" {
				filter.ProjectID = &project
			}
			if tag != "" {
				filter.TagID = &tag
			}
			tasks, err := s.Tasks.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	cmd.Flags().StringVar(&project, "project", "", "Only tasks in this project id")
	cmd.Flags().StringVar(&tag, "tag", "", "Only tasks carrying this tag id")
	return cmd
}

// taskFlags are the task fields settable from the command line.
type taskFlags struct {
	description string
	project     string
	due         string
	status      string
	priority    int
	color       string
	tags        []string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "Task description")
	cmd.Flags().StringVar(&f.project, "project", "", "Project id")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, "status", "", "todo, in_progress, done or archived")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "Priority, higher is more urgent")
	cmd.Flags().StringVar(&f.color, "color", "", "Hex color")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag id (repeatable)")
}

func (f *taskFlags) dueDate() (*model.Date, error) {
	if f.due == "" {
		return nil, nil
	}
	d, err := model.ParseDate(f.due)
	if err != nil {
		return nil, fmt.Errorf("invalid --due %q: %w", f.due, err)
	}
	return &d, nil
}

func newTasksAddCmd(a *App) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := f.dueDate()
			if err != nil {
				return err
			}
			in := repository.TaskInput{
				Title:       strings.Join(args, " "),
				Description: f.description,
				DueDate:     due,
				Status:      f.status,
				Priority:    f.priority,
				Color:       f.color,
				TagIDs:      f.tags,
			}
			if f.project != "" {
				in.ProjectID = &f.project
			}

			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.Tasks.Create(cmd.Context(), in)
			if task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", task.ID)
			}
			return err
		},
	}

	f.register(cmd)
	return cmd
}

func newTasksDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			status := model.StatusDone
			task, err := s.Tasks.Update(cmd.Context(), args[0], repository.TaskPatch{Status: &status})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", task.Title)
			return nil
		},
	}
}

func newTasksEditCmd(a *App) *cobra.Command {
	var (
		f            taskFlags
		title        string
		clearProject bool
		clearDue     bool
		clearTags    bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var patch repository.TaskPatch

			if changed("title") {
				patch.Title = &title
			}
			if changed("description") {
				patch.Description = &f.description
			}
			// An empty --project or --due clears the field.
			patch.ClearProjectID = clearProject
			if changed("project") {
				if f.project == "" {
					patch.ClearProjectID = true
				} else {
					patch.ProjectID = &f.project
				}
			}
			patch.ClearDueDate = clearDue
			if changed("due") {
				due, err := f.dueDate()
				if err != nil {
					return err
				}
				if due == nil {
					patch.ClearDueDate = true
				} else {
					patch.DueDate = due
				}
			}
			if changed("status") {
				patch.Status = &f.status
			}
			if changed("priority") {
				patch.Priority = &f.priority
			}
			if changed("color") {
				patch.Color = &f.color
			}
			switch {
			case clearTags:
				patch.TagIDs = &[]string{}
			case changed("tag"):
				patch.TagIDs = &f.tags
			}

			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.Tasks.Update(cmd.Context(), args[0], patch)
			if task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", task.ID)
			}
			return err
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().BoolVar(&clearProject, "clear-project", false, "Remove the task from its project")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove every tag")
	return cmd
}

func newTasksRmCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  %-11s  P%d  %s", t.ID, t.Status, t.Priority, t.Title)
		if t.ProjectName != "" {
			line += "  [" + t.ProjectName + "]"
		}
		for _, tag := range t.Tags {
			line += "  #" + tag.Name
		}
		if t.DueDate != nil {
			line += "  due " + t.DueDate.String()
		}
		fmt.Fprintln(w, line)
	}
}
