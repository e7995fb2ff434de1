// Package clickup is a rate-limited, caching client for the ClickUp v2 REST API.
// file: internal/clickup/types.go
package clickup

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// ID is an identifier the remote sends either as a JSON string or a number.
// It always marshals back as a string.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "invalid id %s", data)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// Timestamp is a millisecond Unix time the remote sends as a string or number.
// Zero means absent.
type Timestamp int64

// UnmarshalJSON accepts "1700000000000", 1700000000000, "" and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*t = 0
			return nil
		}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid timestamp %q", raw)
	}
	*t = Timestamp(ms)
	return nil
}

// MarshalJSON encodes the timestamp as a number, or null when zero.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(int64(t), 10)), nil
}

// Time converts to time.Time. The zero Timestamp maps to the zero time.
func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(t))
}

// Millis returns the raw millisecond value.
func (t Timestamp) Millis() int64 { return int64(t) }

// User is a workspace member.
type User struct {
	ID             ID     `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Status is a task's workflow status.
type Status struct {
	Status     string          `json:"status"`
	Color      string          `json:"color,omitempty"`
	Type       string          `json:"type,omitempty"`
	OrderIndex json.RawMessage `json:"orderindex,omitempty"`
}

// CustomField is a user-defined field attached to a task.
type CustomField struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value,omitempty"`
	TypeConfig json.RawMessage `json:"type_config,omitempty"`
}

// ChecklistItem is one entry of a checklist.
type ChecklistItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resolved bool   `json:"resolved"`
}

// Checklist is a named list of items on a task.
type Checklist struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items,omitempty"`
}

// Task is a remote task. The dashboard calls these projects.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Assignees    []User        `json:"assignees"`
	CustomFields []CustomField `json:"custom_fields"`
	Checklists   []Checklist   `json:"checklists,omitempty"`
	DateCreated  Timestamp     `json:"date_created"`
	DateUpdated  Timestamp     `json:"date_updated"`
	DueDate      Timestamp     `json:"due_date,omitempty"`
	StartDate    Timestamp     `json:"start_date,omitempty"`
	Description  string        `json:"description,omitempty"`
	URL          string        `json:"url"`
}

// FindCustomField returns the field with the given id.
func (t *Task) FindCustomField(fieldID string) (CustomField, bool) {
	for _, f := range t.CustomFields {
		if f.ID == fieldID {
			return f, true
		}
	}
	return CustomField{}, false
}

// CommentSegment is one rich-text fragment of a comment.
type CommentSegment struct {
	Text string `json:"text"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID          ID               `json:"id"`
	Comment     []CommentSegment `json:"comment,omitempty"`
	CommentText string           `json:"comment_text"`
	User        User             `json:"user"`
	Resolved    bool             `json:"resolved"`
	Assignee    *User            `json:"assignee,omitempty"`
	AssignedBy  *User            `json:"assigned_by,omitempty"`
	Date        Timestamp        `json:"date"`
}

// TaskRef names the task a time entry belongs to.
type TaskRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Duration is a millisecond count the remote sends as a string or number.
type Duration int64

// UnmarshalJSON accepts "3600000", 3600000 and null. Running timers report a
// negative duration, which is kept as is.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ts Timestamp
	if err := ts.UnmarshalJSON(data); err != nil {
		return errors.Wrap(err, "invalid duration")
	}
	*d = Duration(ts)
	return nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) * time.Millisecond }

// Hours returns the duration in hours.
func (d Duration) Hours() float64 { return float64(d) / 3.6e6 }

// TimeEntry is a tracked time interval on a task.
type TimeEntry struct {
	ID          ID        `json:"id"`
	Task        *TaskRef  `json:"task,omitempty"`
	WID         string    `json:"wid,omitempty"`
	User        User      `json:"user"`
	Billable    bool      `json:"billable"`
	Start       Timestamp `json:"start"`
	End         Timestamp `json:"end"`
	Duration    Duration  `json:"duration"`
	Description string    `json:"description"`
	Source      string    `json:"source,omitempty"`
	At          Timestamp `json:"at,omitempty"`
}

// TimeEntryInput describes a time entry to create.
type TimeEntryInput struct {
	TaskID string
	// Duration is the tracked time; it is sent in milliseconds.
	Duration    time.Duration
	Description string
	// Start is sent only when set.
	Start *time.Time
	// Billable is sent only when set.
	Billable *bool
}

// List is a container of tasks.
type List struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	OrderIndex int             `json:"orderindex"`
	Status     json.RawMessage `json:"status,omitempty"`
	TaskCount  json.RawMessage `json:"task_count,omitempty"`
	Archived   bool            `json:"archived"`
	Statuses   []Status        `json:"statuses,omitempty"`
}

// --- response envelopes ---.

type taskListResponse struct {
	Tasks []Task `json:"tasks"`
}

type commentsResponse struct {
	Comments []Comment `json:"comments"`
	Data     []Comment `json:"data"`
}

type commentCreatedResponse struct {
	ID   ID        `json:"id"`
	Date Timestamp `json:"date"`
	Data *Comment  `json:"data"`
}

type timeEntriesResponse struct {
	Data []TimeEntry `json:"data"`
}

type timeEntryCreatedResponse struct {
	Data *TimeEntry `json:"data"`
}

type membersResponse struct {
	Members []struct {
		User *User `json:"user"`
	} `json:"members"`
	Users []User `json:"users"`
}

type userResponse struct {
	User *User `json:"user"`
}

type checklistCreatedResponse struct {
	Checklist *Checklist `json:"checklist"`
}

type checklistItemCreatedResponse struct {
	Checklist     *Checklist     `json:"checklist"`
	ChecklistItem *ChecklistItem `json:"checklist_item"`
}

type errorResponse struct {
	Err   string `json:"err"`
	Error string `json:"error"`
	ECode string `json:"ECODE"`
}
