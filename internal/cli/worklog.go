package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase"
)

// newClockInCommand creates the clock-in command.
func newClockInCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "clock-in <id>",
		Short: "Start a work session on an assigned task",
		Long: `Open a work session. Only the assignee of an open task may clock in,
and only one session per worker may be open at a time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ClockInUseCase().Execute(cmd.Context(), usecase.ClockInInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Clocked in on task %s at %s\n",
				out.Entry.TaskID, out.Entry.ClockInAt.Format(time.RFC3339))
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// newClockOutCommand creates the clock-out command.
func newClockOutCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "clock-out <id>",
		Short: "Close your open work session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ClockOutUseCase().Execute(cmd.Context(), usecase.ClockOutInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Clocked out of task %s (%d min)\n",
				out.Entry.TaskID, out.Entry.Minutes())
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// newWorklogCommand creates the worklog command.
func newWorklogCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "worklog <id>",
		Short: "Show the work sessions of a task",
		Long: `Show every work session of a task, the total billable minutes and
the cost so far. Only the requester or the assignee may read it.

Partial minutes round up per session. Open sessions count zero
until they are clocked out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ShowWorklogUseCase().Execute(cmd.Context(), usecase.ShowWorklogInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printWorklog(w, out.Worklog)
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintf(w, "Total: %d min\n", out.Worklog.TotalMinutes)
			_, _ = fmt.Fprintf(w, "Cost so far: %s\n", formatCents(out.CostCents))
			if out.Worklog.HasOpen {
				_, _ = fmt.Fprintln(w, styleOpenMarker.Render("A session is still open"))
			}
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// newCostCommand creates the cost command.
func newCostCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "cost <id>",
		Short: "Quote the current cost of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.QuoteCostUseCase().Execute(cmd.Context(), usecase.QuoteCostInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Minutes: %d\n", out.TotalMinutes)
			_, _ = fmt.Fprintf(w, "Rate: %s cents/min\n", out.Rate.String())
			_, _ = fmt.Fprintf(w, "Labor: %s\n", formatCents(out.LaborCents))
			_, _ = fmt.Fprintf(w, "Prepay: %s\n", formatCents(out.PrepayCents))
			_, _ = fmt.Fprintf(w, "Total: %s\n", formatCents(out.CostCents))
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// printWorklog prints the sessions in clock-in order.
func printWorklog(w io.Writer, wl domain.Worklog) {
	if len(wl.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "No work logged")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "WORKER\tCLOCK IN\tCLOCK OUT\tMINUTES")
	for _, e := range wl.Entries {
		out := "open"
		if e.ClockOutAt != nil {
			out = e.ClockOutAt.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			e.Worker,
			e.ClockInAt.Format(time.RFC3339),
			out,
			e.Minutes(),
		)
	}
}
