package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshalRequiresReminderTime(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":1,"title":"feed cat","task_type":"one_time"}`), &task)
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestTaskUnmarshalSortsAssignees(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{
		"id": 1,
		"title": "feed cat",
		"task_type": "one_time",
		"reminder_time": "2026-08-31T08:00:00",
		"assigned_user_ids": [9, 2, 5]
	}`), &task)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 9}, task.AssignedUserIDs)
}

func TestSetTypeClearsStaleShape(t *testing.T) {
	days := 3
	task := Task{
		Title:        "water plants",
		ReminderTime: "2026-08-31T08:00:00",
		Type:         TaskInterval,
		IntervalDays: &days,
	}

	task.SetType(TaskRecurring)
	assert.Nil(t, task.IntervalDays)

	task.Recurrence = &Recurrence{Type: "weekly", Interval: 1}
	task.SetType(TaskOneTime)
	assert.Nil(t, task.Recurrence)
	assert.Nil(t, task.IntervalDays)
}

func TestTaskValidateShapes(t *testing.T) {
	days := 2
	rec := &Recurrence{Type: "daily", Interval: 1}

	cases := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"valid one-time", Task{Title: "a", ReminderTime: "2026-08-31T08:00:00", Type: TaskOneTime}, false},
		{"valid recurring", Task{Title: "a", ReminderTime: "08:00", Type: TaskRecurring, Recurrence: rec}, false},
		{"valid interval", Task{Title: "a", ReminderTime: "08:00", Type: TaskInterval, IntervalDays: &days}, false},
		{"missing title", Task{ReminderTime: "08:00", Type: TaskOneTime}, true},
		{"missing reminder", Task{Title: "a", Type: TaskOneTime}, true},
		{"recurring without rule", Task{Title: "a", ReminderTime: "08:00", Type: TaskRecurring}, true},
		{"interval without days", Task{Title: "a", ReminderTime: "08:00", Type: TaskInterval}, true},
		{"one-time with interval days", Task{Title: "a", ReminderTime: "08:00", Type: TaskOneTime, IntervalDays: &days}, true},
		{"mixed shapes", Task{Title: "a", ReminderTime: "08:00", Type: TaskRecurring, Recurrence: rec, IntervalDays: &days}, true},
		{"unknown type", Task{Title: "a", ReminderTime: "08:00", Type: TaskType("monthly")}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if tc.wantErr {
				assert.True(t, IsDomainError(err, ErrCodeInvalid), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsLocal(t *testing.T) {
	assert.True(t, (&Task{ID: -3}).IsLocal())
	assert.False(t, (&Task{ID: 3}).IsLocal())
	assert.False(t, (&Task{}).IsLocal())
}

func TestAsConflict(t *testing.T) {
	conflict := &ConflictError{Entity: "task", EntityID: 4, Message: "revision mismatch"}
	wrapped := WrapError(ErrCodeConflict, "update rejected", conflict)

	got, ok := AsConflict(wrapped)
	require.True(t, ok)
	assert.Equal(t, 4, got.EntityID)

	_, ok = AsConflict(NewError(ErrCodeNotFound, "missing"))
	assert.False(t, ok)
}
