package render

import (
	"fmt"
	"strconv"

	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/summary"
)

// Projects prints the task listing.
func (r *Renderer) Projects(tasks []clickup.Task) error {
	if r.format == FormatJSON {
		return r.JSON(tasks)
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			truncate(t.Name, 60),
			statusLabel(t.Status),
			userList(t.Assignees),
			formatDate(t.DueDate),
			formatDate(t.DateUpdated),
		})
	}
	if err := r.table([]string{"ID", "Name", "Status", "Assignees", "Due", "Updated"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.w, "%d projects\n", len(tasks))
	return err
}

// Project prints one task with its custom fields and checklists.
func (r *Renderer) Project(t *clickup.Task) error {
	if r.format == FormatJSON {
		return r.JSON(t)
	}
	if err := r.heading(t.Name); err != nil {
		return err
	}
	details := [][]string{
		{"ID", t.ID},
		{"Status", statusLabel(t.Status)},
		{"Assignees", userList(t.Assignees)},
		{"Start", formatDate(t.StartDate)},
		{"Due", formatDate(t.DueDate)},
		{"Created", formatDate(t.DateCreated)},
		{"Updated", formatDate(t.DateUpdated)},
		{"URL", orEmpty(t.URL)},
	}
	if t.Description != "" {
		details = append(details, []string{"Description", truncate(t.Description, maxNoteLength)})
	}
	if err := r.table([]string{"Field", "Value"}, details); err != nil {
		return err
	}

	if len(t.CustomFields) > 0 {
		rows := make([][]string, 0, len(t.CustomFields))
		for _, f := range t.CustomFields {
			value := string(f.Value)
			if value == "" || value == "null" {
				value = emptyCell
			}
			rows = append(rows, []string{f.ID, f.Name, f.Type, truncate(value, 40)})
		}
		if err := r.heading("Custom fields"); err != nil {
			return err
		}
		if err := r.table([]string{"ID", "Name", "Type", "Value"}, rows); err != nil {
			return err
		}
	}
	if len(t.Checklists) > 0 {
		if err := r.heading("Checklists"); err != nil {
			return err
		}
		return r.checklistTable(t.Checklists)
	}
	return nil
}

// Notes prints comments, oldest first as returned by the remote.
func (r *Renderer) Notes(comments []clickup.Comment) error {
	if r.format == FormatJSON {
		return r.JSON(comments)
	}
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{
			c.ID.String(),
			formatDate(c.Date),
			userLabel(c.User),
			truncate(commentText(c), maxNoteLength),
		})
	}
	return r.table([]string{"ID", "Date", "Author", "Note"}, rows)
}

// Comment prints a single created comment.
func (r *Renderer) Comment(c *clickup.Comment) error {
	if r.format == FormatJSON {
		return r.JSON(c)
	}
	return r.Success("Note %s added.", c.ID)
}

// TimeEntries prints tracked time and its total.
func (r *Renderer) TimeEntries(entries []clickup.TimeEntry) error {
	if r.format == FormatJSON {
		return r.JSON(entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID.String(),
			formatDate(e.Start),
			userLabel(e.User),
			formatDuration(e.Duration),
			strconv.FormatBool(e.Billable),
			truncate(orEmpty(e.Description), 60),
		})
	}
	if err := r.table([]string{"ID", "Start", "User", "Duration", "Billable", "Description"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.w, "Total: %s\n", formatHours(summary.TotalHours(entries)))
	return err
}

// Users prints workspace members.
func (r *Renderer) Users(users []clickup.User) error {
	if r.format == FormatJSON {
		return r.JSON(users)
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID.String(), orEmpty(u.Username), orEmpty(u.Email)})
	}
	return r.table([]string{"ID", "Username", "Email"}, rows)
}

// User prints one member.
func (r *Renderer) User(u *clickup.User) error {
	if r.format == FormatJSON {
		return r.JSON(u)
	}
	return r.Users([]clickup.User{*u})
}

// List prints the configured list's metadata and statuses.
func (r *Renderer) List(l *clickup.List) error {
	if r.format == FormatJSON {
		return r.JSON(l)
	}
	if err := r.heading(l.Name); err != nil {
		return err
	}
	rows := make([][]string, 0, len(l.Statuses))
	for _, s := range l.Statuses {
		rows = append(rows, []string{statusLabel(s), orEmpty(s.Type), orEmpty(s.Color)})
	}
	return r.table([]string{"Status", "Type", "Color"}, rows)
}

// Checklists prints a task's checklists.
func (r *Renderer) Checklists(lists []clickup.Checklist) error {
	if r.format == FormatJSON {
		return r.JSON(lists)
	}
	return r.checklistTable(lists)
}

func (r *Renderer) checklistTable(lists []clickup.Checklist) error {
	var rows [][]string
	for _, cl := range lists {
		if len(cl.Items) == 0 {
			rows = append(rows, []string{cl.ID, cl.Name, emptyCell, emptyCell, emptyCell})
			continue
		}
		for _, item := range cl.Items {
			mark := mutedColor.Sprint("[ ]")
			if item.Resolved {
				mark = okColor.Sprint("[x]")
			}
			rows = append(rows, []string{cl.ID, cl.Name, item.ID, mark, item.Name})
		}
	}
	return r.table([]string{"Checklist", "Name", "Item", "Done", "Text"}, rows)
}

// Summaries prints the project summary cards.
func (r *Renderer) Summaries(sums []summary.ProjectSummary) error {
	if r.format == FormatJSON {
		return r.JSON(sums)
	}
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		latest, when, author := emptyCell, emptyCell, emptyCell
		if s.LatestComment != nil {
			latest = truncate(commentText(*s.LatestComment), 80)
			when = formatDate(s.LatestComment.Date)
			author = userLabel(s.LatestComment.User)
		}
		hours := formatHours(s.TotalHours)
		if len(s.Problems) > 0 {
			hours = errColor.Sprint(hours + " (incomplete)")
		}
		rows = append(rows, []string{s.ProjectID, hours, when, author, latest})
	}
	return r.table([]string{"Project", "Tracked", "Last note", "By", "Note"}, rows)
}
