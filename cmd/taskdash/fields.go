// file: cmd/taskdash/fields.go
package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newFieldCmd(a *app) *cobra.Command {
	field := &cobra.Command{
		Use:   "field",
		Short: "Manage project custom fields",
	}

	var clearValue bool
	set := &cobra.Command{
		Use:   "set <id> <field-id> [value]",
		Short: "Set a custom field value",
		Long: `Sets a custom field. Numeric strings are sent as numbers and all-digit strings
longer than 10 characters as millisecond timestamps. --clear sends an empty value.`,
		Example: `  taskdash field set 86a1b2c3 0a52c486-5f05-403b-b4fd-c512ff05131c 1500`,
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			switch {
			case clearValue:
				value = nil
			case len(args) == 3:
				value = args[2]
			default:
				return errors.New("give a value, or --clear")
			}

			c, err := a.api()
			if err != nil {
				return err
			}
			err = c.UpdateProjectField(cmd.Context(), args[0], args[1], value)
			var fieldErr *clickup.FieldUpdateError
			if errors.As(err, &fieldErr) && !fieldErr.FieldFound {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("Hint: run `taskdash project %s` to see the field ids on this project.", args[0]))
			}
			if err != nil {
				return err
			}
			return a.render.Success("Field %s of %s updated.", args[1], args[0])
		},
	}
	set.Flags().BoolVar(&clearValue, "clear", false, "Clear the field")
	field.AddCommand(set)
	return field
}
