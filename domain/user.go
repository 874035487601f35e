package domain

// Role classifies what a user may do within the household.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
	RoleGuest   Role = "guest"
)

// User represents a household member.
type User struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Role   Role    `json:"role"`
	Active bool    `json:"active"`
}

// Validate checks the invariants a user must satisfy before persistence.
func (u *User) Validate() error {
	if u == nil {
		return ErrInvalidPayload
	}
	if u.Name == "" {
		return NewError(ErrCodeInvalid, "user name is required")
	}
	switch u.Role {
	case RoleAdmin, RoleRegular, RoleGuest, "":
	default:
		return NewError(ErrCodeInvalid, "unknown role "+string(u.Role))
	}
	return nil
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}
