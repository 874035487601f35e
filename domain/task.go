package domain

import (
	"encoding/json"
	"sort"
)

// TaskType selects which recurrence shape applies to a task.
type TaskType string

const (
	TaskOneTime   TaskType = "one_time"
	TaskRecurring TaskType = "recurring"
	TaskInterval  TaskType = "interval"
)

// Recurrence describes the repeat rule of a recurring task.
type Recurrence struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
}

// Task represents a household activity item. IDs are assigned by the server;
// a negative ID marks a locally-created task awaiting confirmation.
type Task struct {
	ID              int         `json:"id"`
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	Type            TaskType    `json:"task_type"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`
	IntervalDays    *int        `json:"interval_days,omitempty"`
	ReminderTime    string      `json:"reminder_time"`
	GroupID         *int        `json:"group_id,omitempty"`
	Enabled         bool        `json:"enabled"`
	Completed       bool        `json:"completed"`
	AssignedUserIDs []int       `json:"assigned_user_ids,omitempty"`
	Revision        *int        `json:"revision,omitempty"`
	CreatedAt       int64       `json:"created_at"`
	UpdatedAt       int64       `json:"updated_at"`
	LastAccessed    int64       `json:"last_accessed,omitempty"`
	LastShownAt     int64       `json:"last_shown_at,omitempty"`
}

type taskAlias Task

// UnmarshalJSON rejects records without a reminder time. A missing reminder
// is a malformed record, never a default.
func (t *Task) UnmarshalJSON(data []byte) error {
	var alias taskAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if alias.ReminderTime == "" {
		return NewError(ErrCodeInvalid, "task record has no reminder_time")
	}
	*t = Task(alias)
	t.Normalize()
	return nil
}

// SetType switches the task type and clears the recurrence shape that no
// longer applies.
func (t *Task) SetType(taskType TaskType) {
	t.Type = taskType
	switch taskType {
	case TaskRecurring:
		t.IntervalDays = nil
	case TaskInterval:
		t.Recurrence = nil
	default:
		t.Recurrence = nil
		t.IntervalDays = nil
	}
}

// Normalize keeps assigned user IDs sorted for stable comparison.
func (t *Task) Normalize() {
	sort.Ints(t.AssignedUserIDs)
}

// Validate checks the invariants a task must satisfy before it is persisted:
// a non-empty title and reminder time, and exactly the recurrence shape that
// matches the task type.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.Title == "" {
		return NewError(ErrCodeInvalid, "task title is required")
	}
	if t.ReminderTime == "" {
		return NewError(ErrCodeInvalid, "task reminder_time is required")
	}
	switch t.Type {
	case TaskRecurring:
		if t.Recurrence == nil || t.IntervalDays != nil {
			return NewError(ErrCodeInvalid, "recurring task must carry recurrence only")
		}
	case TaskInterval:
		if t.IntervalDays == nil || t.Recurrence != nil {
			return NewError(ErrCodeInvalid, "interval task must carry interval_days only")
		}
	case TaskOneTime, "":
		if t.Recurrence != nil || t.IntervalDays != nil {
			return NewError(ErrCodeInvalid, "one-time task must not carry recurrence fields")
		}
	default:
		return NewError(ErrCodeInvalid, "unknown task type "+string(t.Type))
	}
	return nil
}

// IsLocal reports whether the task still carries a placeholder ID.
func (t *Task) IsLocal() bool {
	return t != nil && t.ID < 0
}
