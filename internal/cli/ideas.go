package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/repository"
)

func newIdeasCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ideas",
		Aliases: []string{"idea"},
		Short:   "Capture ideas and turn them into tasks",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List ideas, pinned first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			ideas, err := s.Ideas.List(cmd.Context(), search)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(ideas) == 0 {
				fmt.Fprintln(w, "No ideas")
			}
			for _, i := range ideas {
				pin := " "
				if i.IsPinned {
					pin = "*"
				}
				fmt.Fprintf(w, "%s %s  %s\n", pin, i.ID, i.Title)
			}
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "Match title or content")
	cmd.AddCommand(list)

	var content, color string
	var pinned bool
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Capture an idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			idea, err := s.Ideas.Create(cmd.Context(), repository.IdeaInput{
				Title:    strings.Join(args, " "),
				Content:  content,
				Color:    color,
				IsPinned: pinned,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created idea %s\n", idea.ID)
			return nil
		},
	}
	add.Flags().StringVar(&content, "content", "", "Idea body")
	add.Flags().StringVar(&color, "color", "", "Hex color")
	add.Flags().BoolVar(&pinned, "pin", false, "Pin the idea")
	cmd.AddCommand(add)
	cmd.AddCommand(newIdeasEditCmd(a))

	var unpin bool
	pin := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin an idea to the top of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			idea, err := s.Ideas.SetPinned(cmd.Context(), args[0], !unpin)
			if err != nil {
				return err
			}
			state := "Pinned"
			if !idea.IsPinned {
				state = "Unpinned"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, idea.Title)
			return nil
		},
	}
	pin.Flags().BoolVar(&unpin, "off", false, "Unpin instead")
	cmd.AddCommand(pin)

	cmd.AddCommand(&cobra.Command{
		Use:   "convert <id>",
		Short: "Turn an idea into a todo task and delete the idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.Ideas.ConvertToTask(cmd.Context(), args[0])
			if task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", task.ID)
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Ideas.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted idea %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newIdeasEditCmd(a *App) *cobra.Command {
	var title, content, color string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var patch repository.IdeaPatch
			if changed("title") {
				patch.Title = &title
			}
			if changed("content") {
				patch.Content = &content
			}
			if changed("color") {
				patch.Color = &color
			}

			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			idea, err := s.Ideas.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated idea %s\n", idea.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Idea title")
	cmd.Flags().StringVar(&content, "content", "", "Idea body")
	cmd.Flags().StringVar(&color, "color", "", "Hex color")
	return cmd
}
