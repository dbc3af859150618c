package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/repository"
)

func newProjectsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and change projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects with their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := s.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(w, "No projects")
			}
			for _, p := range projects {
				fmt.Fprintf(w, "%s  %s  %d/%d done (%.0f%%)\n",
					p.ID, p.Name, p.CompletedCount, p.TaskCount, p.Progress()*100)
			}
			return nil
		},
	})

	var description, color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			p, err := s.Projects.Create(cmd.Context(), repository.ProjectInput{
				Name:        strings.Join(args, " "),
				Description: description,
				Color:       color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "Project description")
	add.Flags().StringVar(&color, "color", "", "Hex color")
	cmd.AddCommand(add)
	cmd.AddCommand(newProjectsEditCmd(a))

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project; its tasks are kept without a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newTagsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "List and change tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags with their usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := s.Tags.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(w, "No tags")
			}
			for _, t := range tags {
				fmt.Fprintf(w, "%s  #%s  %d tasks\n", t.ID, t.Name, t.UsageCount)
			}
			return nil
		},
	})

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.Tags.Create(cmd.Context(), repository.TagInput{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s\n", t.ID)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "Hex color")
	cmd.AddCommand(add)
	cmd.AddCommand(newTagsEditCmd(a))

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a tag and detach it from its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Tags.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newProjectsEditCmd(a *App) *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var patch repository.ProjectPatch
			if changed("name") {
				patch.Name = &name
			}
			if changed("description") {
				patch.Description = &description
			}
			if changed("color") {
				patch.Color = &color
			}

			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			p, err := s.Projects.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().StringVar(&color, "color", "", "Hex color")
	return cmd
}

func newTagsEditCmd(a *App) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch repository.TagPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}

			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.Tags.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated tag %s\n", t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Tag name")
	cmd.Flags().StringVar(&color, "color", "", "Hex color")
	return cmd
}
