// Package cli provides the command-line interface for hora.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/domain"
)

// EnvIdentity supplies the caller identity when --as is not given.
const EnvIdentity = "HORA_IDENTITY"

// Command group IDs.
const (
	groupSetup   = "setup"
	groupTask    = "task"
	groupWorklog = "worklog"
)

// NewRootCommand creates the root command for hora.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "hora",
		Short: "Paid task marketplace",
		Long: `hora posts paid tasks, lets workers accept them, records the time
worked on each task and bills the requester when the task is completed.

Every command acts on behalf of a caller identity, given with --as or
the HORA_IDENTITY environment variable.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupWorklog, Title: "Worklog:"},
	)

	setup := []*cobra.Command{
		newInitCommand(c),
		newConfigCommand(c),
		newServeCommand(c),
	}
	tasks := []*cobra.Command{
		newNewCommand(c),
		newShowCommand(c),
		newEditCommand(c),
		newListCommand(c),
		newAcceptCommand(c),
		newCompleteCommand(c),
	}
	worklog := []*cobra.Command{
		newClockInCommand(c),
		newClockOutCommand(c),
		newWorklogCommand(c),
		newCostCommand(c),
	}

	for _, cmd := range setup {
		cmd.GroupID = groupSetup
		root.AddCommand(cmd)
	}
	for _, cmd := range tasks {
		cmd.GroupID = groupTask
		root.AddCommand(cmd)
	}
	for _, cmd := range worklog {
		cmd.GroupID = groupWorklog
		root.AddCommand(cmd)
	}

	return root
}

// addIdentityFlag registers --as on cmd and returns its destination.
func addIdentityFlag(cmd *cobra.Command) *string {
	var as string
	cmd.Flags().StringVar(&as, "as", os.Getenv(EnvIdentity), "Caller identity (default: $"+EnvIdentity+")")
	return &as
}

// caller converts the --as value to an identity.
func caller(as *string) domain.Identity {
	return domain.Identity(strings.TrimSpace(*as))
}
