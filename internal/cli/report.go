package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TOTORON9625/DevTodo/internal/chart"
)

// chartWidth is the longest bar drawn by report commands.
const chartWidth = 40

func newReportCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Weekly, monthly and all-time reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "weekly",
		Short: "Report on the current Monday-to-Sunday week",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			w, err := s.Reports.Weekly(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week %s\n", w.Period)
			fmt.Fprintf(out, "Completed: %d  Created: %d  In progress: %d  Completion rate: %d%%\n\n",
				w.CompletedCount, w.CreatedCount, w.InProgressCount, w.CompletionRate)
			for _, t := range w.CompletedTasks {
				fmt.Fprintf(out, "  %s  %s\n", t.CompletedAt.In(w.Period.Start.Location()).Format("01-02 15:04"), t.Title)
			}
			if len(w.CompletedTasks) > 0 {
				fmt.Fprintln(out)
			}
			return s.Reports.DrawWeekly(chart.NewTerminalSink(out, chartWidth), w)
		},
	})

	var year, month int
	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Report on a calendar month",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			m, err := s.Reports.Monthly(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d-%02d (%s)\n", m.Year, int(m.Month), m.Period)
			fmt.Fprintf(out, "Completed: %d  Created: %d\n\n", m.CompletedCount, m.CreatedCount)
			return s.Reports.DrawMonthly(chart.NewTerminalSink(out, chartWidth), m)
		},
	}
	monthly.Flags().IntVar(&year, "year", 0, "Year, default the current one")
	monthly.Flags().IntVar(&month, "month", 0, "Month 1-12, default the current one")
	cmd.AddCommand(monthly)

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "All-time totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			sum, err := s.Reports.Summary(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tasks: %d  Projects: %d  Tags: %d  Ideas: %d  Completion rate: %.1f%%\n\n",
				sum.TotalTasks, sum.TotalProjects, sum.TotalTags, sum.TotalIdeas, sum.CompletionRate)
			return s.Reports.DrawSummary(chart.NewTerminalSink(out, chartWidth), sum)
		},
	})

	return cmd
}
