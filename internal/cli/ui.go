package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/app"
	"github.com/TOTORON9625/DevTodo/internal/theme"
)

func newUICmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, a)
		},
	}
}

func runUI(cmd *cobra.Command, a *App) error {
	if err := theme.Apply(a.cfg.Display.Theme); err != nil {
		return err
	}
	s, err := a.services(cmd.Context())
	if err != nil {
		return err
	}

	user := ""
	if u := a.client.User(); u != nil {
		user = u.Email
	}

	p := tea.NewProgram(app.New(s, user), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
