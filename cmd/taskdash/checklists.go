// file: cmd/taskdash/checklists.go
package main

import (
	"github.com/spf13/cobra"
)

func newChecklistCmd(a *app) *cobra.Command {
	checklist := &cobra.Command{
		Use:   "checklist",
		Short: "Manage project checklists",
	}

	checklist.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's checklists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			return a.render.Checklists(c.GetTaskChecklists(cmd.Context(), args[0]))
		},
	})

	checklist.AddCommand(&cobra.Command{
		Use:   "create <id> <name>",
		Short: "Create an empty checklist on a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			cl, err := c.CreateChecklist(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.render.Success("Checklist %q created (%s).", cl.Name, cl.ID)
		},
	})

	checklist.AddCommand(&cobra.Command{
		Use:   "add <id> <checklist-id> <text>",
		Short: "Add an item to a checklist",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			item, err := c.AddChecklistItem(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return a.render.Success("Item %q added (%s).", item.Name, item.ID)
		},
	})

	var undo bool
	check := &cobra.Command{
		Use:   "check <id> <checklist-id> <item-id>",
		Short: "Mark a checklist item done (or not done with --undo)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			if err := c.UpdateChecklistItem(cmd.Context(), args[0], args[1], args[2], !undo); err != nil {
				return err
			}
			if undo {
				return a.render.Success("Item %s unchecked.", args[2])
			}
			return a.render.Success("Item %s checked.", args[2])
		},
	}
	check.Flags().BoolVar(&undo, "undo", false, "Uncheck the item")
	checklist.AddCommand(check)
	return checklist
}
