// file: cmd/taskdash/notes.go
package main

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/render"
	"github.com/spf13/cobra"
)

func newNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id>",
		Short: "List the notes (comments) on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			notes, err := c.GetProjectNotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render.Notes(notes)
		},
	}
}

func newNoteCmd(a *app) *cobra.Command {
	note := &cobra.Command{
		Use:   "note",
		Short: "Manage project notes",
	}
	note.AddCommand(&cobra.Command{
		Use:     "add <id> <text...>",
		Short:   "Add a note to a project",
		Example: `  taskdash note add 86a1b2c3 "Client approved the mockups"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return errors.New("note text is empty")
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			comment, err := c.AddProjectNote(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			return a.render.Comment(comment)
		},
	})
	return note
}

func newTimeCmd(a *app) *cobra.Command {
	timeCmd := &cobra.Command{
		Use:   "time <id>",
		Short: "List time tracked on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			entries, err := c.GetTimeEntries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render.TimeEntries(entries)
		},
	}

	var (
		duration    time.Duration
		description string
		start       string
		billable    bool
	)
	add := &cobra.Command{
		Use:     "add <id>",
		Short:   "Record time against a project",
		Example: `  taskdash time add 86a1b2c3 --duration 1h30m --description "Design review" --billable`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return errors.New("--duration must be positive")
			}
			in := clickup.TimeEntryInput{TaskID: args[0], Duration: duration, Description: description}
			if start != "" {
				ms, err := parseDateFlag("start", start)
				if err != nil {
					return err
				}
				t := time.UnixMilli(*ms)
				in.Start = &t
			}
			if cmd.Flags().Changed("billable") {
				in.Billable = &billable
			}

			c, err := a.api()
			if err != nil {
				return err
			}
			entry, err := c.CreateTimeEntry(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.render.Format() == render.FormatJSON {
				return a.render.JSON(entry)
			}
			return a.render.Success("Recorded %s on %s (entry %s).", duration, args[0], entry.ID)
		},
	}
	add.Flags().DurationVarP(&duration, "duration", "d", 0, "Tracked time, e.g. 45m or 1h30m (required)")
	add.Flags().StringVar(&description, "description", "", "Entry description")
	add.Flags().StringVar(&start, "start", "", "Start time (YYYY-MM-DD, RFC 3339 or Unix ms)")
	add.Flags().BoolVar(&billable, "billable", false, "Mark the entry billable")
	_ = add.MarkFlagRequired("duration")
	timeCmd.AddCommand(add)
	return timeCmd
}
