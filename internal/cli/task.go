package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/usecase"
)

// newNewCommand creates the new command for posting tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Category    string
		Location    string
		At          string
		Estimate    int
		Prepay      int64
	}
	var identity *string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Post a new task",
		Long: `Post a new paid task as the caller.

The task starts open and unassigned. Without --at it is immediate:
it can start as soon as a worker accepts it.

Examples:
  # Post an immediate task
  hora new --as alice --title "Walk the dog" --estimate 30

  # Post a scheduled task with a prepayment of 5.00
  hora new --as alice --title "Airport pickup" --estimate 90 \
    --at 2026-03-01T09:00:00Z --prepay 500 --category companion`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := usecase.CreateTaskInput{
				Title:             opts.Title,
				Description:       opts.Description,
				Category:          domain.Category(opts.Category),
				LocationText:      opts.Location,
				EstimatedMinutes:  opts.Estimate,
				PrepayAmountCents: opts.Prepay,
				IsImmediate:       opts.At == "",
			}
			if opts.At != "" {
				at, err := parseTime(opts.At)
				if err != nil {
					return err
				}
				input.ScheduledAt = &at
			}
			input.Requester = caller(identity)

			out, err := c.CreateTaskUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", out.Task.ID)
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&opts.Description, "body", "", "Task description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Category: task (default) or companion")
	cmd.Flags().StringVar(&opts.Location, "location", "", "Free-form location")
	cmd.Flags().StringVar(&opts.At, "at", "", "Scheduled start (RFC3339); omit for an immediate task")
	cmd.Flags().IntVar(&opts.Estimate, "estimate", 0, "Estimated minutes")
	cmd.Flags().Int64Var(&opts.Prepay, "prepay", 0, "Prepaid amount in cents")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Task)
			}
			printTaskDetails(cmd.OutOrStdout(), out.Task)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")

	return cmd
}

// newEditCommand creates the edit command.
func newEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
		Category    string
		Location    string
		At          string
		Estimate    int
		Prepay      int64
		Immediate   bool
	}
	var identity *string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an open task",
		Long: `Edit the fields of an open task. Only the requester may edit.

Only the flags given are changed. --at switches the task to scheduled;
--immediate switches it back.

Examples:
  hora edit 3f2a... --as alice --estimate 45
  hora edit 3f2a... --as alice --at 2026-03-01T10:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch domain.TaskPatch
			if flags.Changed("title") {
				patch.Title = &opts.Title
			}
			if flags.Changed("body") {
				patch.Description = &opts.Description
			}
			if flags.Changed("category") {
				category := domain.Category(opts.Category)
				patch.Category = &category
			}
			if flags.Changed("location") {
				patch.LocationText = &opts.Location
			}
			if flags.Changed("estimate") {
				patch.EstimatedMinutes = &opts.Estimate
			}
			if flags.Changed("prepay") {
				patch.PrepayAmountCents = &opts.Prepay
			}
			if flags.Changed("immediate") {
				patch.IsImmediate = &opts.Immediate
			}
			if flags.Changed("at") {
				at, err := parseTime(opts.At)
				if err != nil {
					return err
				}
				patch.ScheduledAt = &at
			}

			out, err := c.EditTaskUseCase().Execute(cmd.Context(), usecase.EditTaskInput{
				Caller: caller(identity),
				TaskID: args[0],
				Patch:  patch,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", out.Task.ID)
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	cmd.Flags().StringVar(&opts.Title, "title", "", "New title")
	cmd.Flags().StringVar(&opts.Description, "body", "", "New description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "New category: task or companion")
	cmd.Flags().StringVar(&opts.Location, "location", "", "New location")
	cmd.Flags().StringVar(&opts.At, "at", "", "New scheduled start (RFC3339)")
	cmd.Flags().IntVar(&opts.Estimate, "estimate", 0, "New estimated minutes")
	cmd.Flags().Int64Var(&opts.Prepay, "prepay", 0, "New prepaid amount in cents")
	cmd.Flags().BoolVar(&opts.Immediate, "immediate", false, "Make the task immediate")

	return cmd
}

// newListCommand creates the list command.
func newListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Statuses []string
		Posted   bool
		Assigned bool
	}
	var identity *string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		Long: `List tasks the caller posted (--posted, the default) or was assigned (--assigned).

Output columns: ID, STATUS, REQUESTER, ASSIGNEE, ESTIMATE, TITLE

Examples:
  # Tasks I posted
  hora list --as alice

  # Completed tasks I worked on
  hora list --as bob --assigned --status completed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			who := caller(identity)
			input := usecase.ListTasksInput{}
			if opts.Assigned {
				input.AssignedTo = who
			} else {
				input.PostedBy = who
			}
			for _, s := range opts.Statuses {
				input.Statuses = append(input.Statuses, domain.Status(s))
			}

			out, err := c.ListTasksUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}

			printTaskList(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	cmd.Flags().BoolVar(&opts.Posted, "posted", false, "Tasks posted by the caller")
	cmd.Flags().BoolVar(&opts.Assigned, "assigned", false, "Tasks assigned to the caller")
	cmd.Flags().StringArrayVar(&opts.Statuses, "status", nil, "Filter by status: open, completed (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("posted", "assigned")

	return cmd
}

// newAcceptCommand creates the accept command.
func newAcceptCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept an open task as its worker",
		Long: `Accept an open, unassigned task. Of several workers accepting
the same task at once exactly one succeeds; the others get a conflict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.AcceptTaskUseCase().Execute(cmd.Context(), usecase.AcceptTaskInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Accepted task %s\n", out.Task.ID)
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// newCompleteCommand creates the complete command.
func newCompleteCommand(c *app.Container) *cobra.Command {
	var identity *string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a task and bill it",
		Long: `Mark a task completed. Either participant may complete it once
work has been logged and every session is clocked out.

The output shows the billed cost: logged minutes at the configured
rate plus the prepaid amount.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.CompleteTaskUseCase().Execute(cmd.Context(), usecase.CompleteTaskInput{
				Caller: caller(identity),
				TaskID: args[0],
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Completed task %s\n", out.Task.ID)
			_, _ = fmt.Fprintf(w, "Minutes: %d\n", out.TotalMinutes)
			_, _ = fmt.Fprintf(w, "Cost: %s\n", formatCents(out.CostCents))
			return nil
		},
	}
	identity = addIdentityFlag(cmd)

	return cmd
}

// parseTime parses an RFC3339 timestamp flag.
func parseTime(s string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q (want RFC3339)", domain.ErrValidation, s)
	}
	return at.UTC(), nil
}

// printTaskList prints tasks in aligned columns.
func printTaskList(w io.Writer, tasks []*domain.Task) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tREQUESTER\tASSIGNEE\tESTIMATE\tTITLE")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dm\t%s\n",
			t.ID,
			t.Phase(),
			t.Requester,
			valueOr(string(t.AssignedTo)),
			t.EstimatedMinutes,
			t.Title,
		)
	}
}

// printTaskDetails prints one task.
func printTaskDetails(w io.Writer, t *domain.Task) {
	_, _ = fmt.Fprintln(w, styleHeading.Render(fmt.Sprintf("# Task %s: %s", t.ID, t.Title)))
	_, _ = fmt.Fprintln(w)

	if t.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", t.Description)
	}

	_, _ = fmt.Fprintf(w, "Status: %s\n", renderPhase(t))
	_, _ = fmt.Fprintf(w, "Category: %s\n", t.Category)
	_, _ = fmt.Fprintf(w, "Requester: %s\n", t.Requester)
	_, _ = fmt.Fprintf(w, "Assignee: %s\n", valueOr(string(t.AssignedTo)))
	_, _ = fmt.Fprintf(w, "Estimate: %d minutes\n", t.EstimatedMinutes)
	_, _ = fmt.Fprintf(w, "Prepay: %s\n", formatCents(t.PrepayAmountCents))
	if t.LocationText != "" {
		_, _ = fmt.Fprintf(w, "Location: %s\n", t.LocationText)
	}
	if t.IsImmediate {
		_, _ = fmt.Fprintln(w, "Schedule: immediate")
	} else if t.ScheduledAt != nil {
		_, _ = fmt.Fprintf(w, "Schedule: %s\n", t.ScheduledAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	if t.CompletedAt != nil {
		_, _ = fmt.Fprintf(w, "Completed: %s\n", t.CompletedAt.Format(time.RFC3339))
	}
}
