package transport

// TaskRequest is the mutation body accepted by the task endpoints.
type TaskRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	TaskType        string  `json:"task_type"`
	RecurrenceType  string  `json:"recurrence_type"`
	Interval        int     `json:"interval"`
	IntervalDays    *int    `json:"interval_days"`
	ReminderTime    string  `json:"reminder_time"`
	GroupID         *int    `json:"group_id"`
	Enabled         *bool   `json:"enabled"`
	AssignedUserIDs []int   `json:"assigned_user_ids"`
	Revision        *int    `json:"revision"`
}

// GroupRequest is the mutation body accepted by the group endpoints.
type GroupRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	CreatedBy     int     `json:"created_by"`
	MemberUserIDs []int   `json:"member_user_ids"`
}

// UserRequest is the mutation body accepted by the user endpoints.
type UserRequest struct {
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Role   string  `json:"role"`
	Active *bool   `json:"active"`
}

// SessionRequest selects the active local user.
type SessionRequest struct {
	UserID int `json:"user_id"`
}
