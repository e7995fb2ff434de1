// file: internal/clickup/clone.go
package clickup

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Cached values are shared between callers, so every read hands out a deep
// copy. The helpers below copy each nested slice, pointer and raw JSON field.

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return bytes.Clone(raw)
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func cloneUserPtr(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (s Status) clone() Status {
	s.OrderIndex = cloneRaw(s.OrderIndex)
	return s
}

func (f CustomField) clone() CustomField {
	f.Value = cloneRaw(f.Value)
	f.TypeConfig = cloneRaw(f.TypeConfig)
	return f
}

func (cl Checklist) clone() Checklist {
	cl.Items = slices.Clone(cl.Items)
	return cl
}

func (t Task) clone() Task {
	t.Status = t.Status.clone()
	t.Assignees = slices.Clone(t.Assignees)
	t.CustomFields = cloneSlice(t.CustomFields, CustomField.clone)
	t.Checklists = cloneSlice(t.Checklists, Checklist.clone)
	return t
}

func (c Comment) clone() Comment {
	c.Comment = slices.Clone(c.Comment)
	c.Assignee = cloneUserPtr(c.Assignee)
	c.AssignedBy = cloneUserPtr(c.AssignedBy)
	return c
}

func (e TimeEntry) clone() TimeEntry {
	if e.Task != nil {
		ref := *e.Task
		e.Task = &ref
	}
	return e
}

func (l List) clone() List {
	l.Status = cloneRaw(l.Status)
	l.TaskCount = cloneRaw(l.TaskCount)
	l.Statuses = cloneSlice(l.Statuses, Status.clone)
	return l
}
