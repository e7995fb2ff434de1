// file: cmd/taskdash/projects.go
package main

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newProjectsCmd(a *app) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects in the configured list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			tasks, err := c.GetProjects(cmd.Context(), archived)
			if err != nil {
				return err
			}
			return a.render.Projects(tasks)
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "List archived projects instead")
	return cmd
}

func newProjectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "project <id>",
		Short: "Show one project with its custom fields and checklists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			task, err := c.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render.Project(task)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status <id> <status>",
		Short:   "Move a project to another status",
		Example: `  taskdash status 86a1b2c3 "in review"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.UpdateProjectStatus(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return a.render.Success("Status of %s set to %q.", args[0], args[1])
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project and optionally replace its description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.UpdateProjectName(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			if cmd.Flags().Changed("description") {
				if err := c.UpdateProjectDescription(cmd.Context(), args[0], description); err != nil {
					return err
				}
			}
			return a.render.Success("Project %s renamed to %q.", args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newAssignCmd(a *app) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "assign <id> [user-id...]",
		Short: "Set the assignees of a project",
		Long:  "With one user id the project is assigned to that user; with several the assignee list is replaced. --clear removes all assignees.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			id, users := args[0], args[1:]
			switch {
			case clearAll:
				err = c.UpdateProjectAssignees(cmd.Context(), id, nil)
			case len(users) == 1:
				err = c.AssignProjectToUser(cmd.Context(), id, users[0])
			case len(users) > 1:
				err = c.UpdateProjectAssignees(cmd.Context(), id, users)
			default:
				return errors.New("give at least one user id, or --clear")
			}
			if err != nil {
				return err
			}
			return a.render.Success("Assignees of %s updated.", id)
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove all assignees")
	return cmd
}

func newDatesCmd(a *app) *cobra.Command {
	var start, due string
	cmd := &cobra.Command{
		Use:     "dates <id>",
		Short:   "Set the start and/or due date of a project",
		Example: `  taskdash dates 86a1b2c3 --due 2024-06-30`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startMs, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			dueMs, err := parseDateFlag("due", due)
			if err != nil {
				return err
			}
			if startMs == nil && dueMs == nil {
				return errors.New("give --start and/or --due")
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.UpdateProjectDates(cmd.Context(), args[0], startMs, dueMs); err != nil {
				return err
			}
			return a.render.Success("Dates of %s updated.", args[0])
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD, RFC 3339 or Unix ms)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, RFC 3339 or Unix ms)")
	return cmd
}

// parseDateFlag converts a date flag to Unix milliseconds. Empty means unset.
func parseDateFlag(name, value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return &ms, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			ms := t.UnixMilli()
			return &ms, nil
		}
	}
	return nil, errors.Newf("--%s: %q is not a date (use YYYY-MM-DD, RFC 3339 or Unix ms)", name, value)
}
