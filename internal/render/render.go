// Package render prints client results as terminal tables or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.Newf("unknown output format %q (want table or json)", s)
	}
}

const (
	dateLayout    = "2006-01-02"
	maxNoteLength = 100
	emptyCell     = "-"
)

var (
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errColor     = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
	headingColor = color.New(color.Bold)
)

// Renderer writes results to w in the chosen format.
type Renderer struct {
	w      io.Writer
	format Format
}

// New creates a renderer. An unknown format falls back to tables.
func New(w io.Writer, format Format) *Renderer {
	if format != FormatJSON {
		format = FormatTable
	}
	return &Renderer{w: w, format: format}
}

// Format returns the active format.
func (r *Renderer) Format() Format { return r.format }

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode JSON output")
}

// Success prints a confirmation line, or {"ok":true,"message":...} in JSON mode.
func (r *Renderer) Success(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if r.format == FormatJSON {
		return r.JSON(map[string]any{"ok": true, "message": msg})
	}
	_, err := fmt.Fprintln(r.w, okColor.Sprint("✓ ")+msg)
	return err
}

// table renders rows under headers.
func (r *Renderer) table(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(r.w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(rows); err != nil {
		return errors.Wrap(err, "failed to build table")
	}
	return errors.Wrap(table.Render(), "failed to render table")
}

func (r *Renderer) heading(text string) error {
	_, err := fmt.Fprintln(r.w, headingColor.Sprint(text))
	return err
}

// formatDate renders a millisecond timestamp as a UTC date.
func formatDate(ts clickup.Timestamp) string {
	if ts == 0 {
		return emptyCell
	}
	return ts.Time().UTC().Format(dateLayout)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f h", h)
}

func formatDuration(d clickup.Duration) string {
	if d < 0 {
		return warnColor.Sprint("running")
	}
	return d.Std().Round(time.Minute).String()
}

// truncate shortens s to n runes, appending "..." when cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyCell
	}
	return s
}

// userLabel prefers the username, then the email.
func userLabel(u clickup.User) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return "#" + u.ID.String()
	default:
		return emptyCell
	}
}

func userList(users []clickup.User) string {
	if len(users) == 0 {
		return emptyCell
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = userLabel(u)
	}
	return strings.Join(names, ", ")
}

// statusLabel colours a task status by its workflow type.
func statusLabel(s clickup.Status) string {
	text := orEmpty(s.Status)
	switch strings.ToLower(s.Type) {
	case "closed", "done":
		return okColor.Sprint(text)
	case "open":
		return mutedColor.Sprint(text)
	}
	if strings.EqualFold(s.Status, "complete") || strings.EqualFold(s.Status, "done") {
		return okColor.Sprint(text)
	}
	return warnColor.Sprint(text)
}

// commentText returns the plain text of a comment, joining rich-text segments
// when comment_text is empty.
func commentText(c clickup.Comment) string {
	if c.CommentText != "" {
		return c.CommentText
	}
	parts := make([]string, 0, len(c.Comment))
	for _, seg := range c.Comment {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, "")
}
