package domain

import "sort"

// Group represents a household chore group shared by several users.
type Group struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	CreatedBy     int     `json:"created_by"`
	MemberUserIDs []int   `json:"member_user_ids,omitempty"`
	UpdatedAt     int64   `json:"updated_at"`
}

// Normalize keeps member IDs sorted so two groups with the same membership
// compare equal regardless of insertion order.
func (g *Group) Normalize() {
	sort.Ints(g.MemberUserIDs)
}

// Validate checks the invariants a group must satisfy before persistence.
func (g *Group) Validate() error {
	if g == nil {
		return ErrInvalidPayload
	}
	if g.Name == "" {
		return NewError(ErrCodeInvalid, "group name is required")
	}
	return nil
}

// IsLocal reports whether the group still carries a placeholder ID.
func (g *Group) IsLocal() bool {
	return g != nil && g.ID < 0
}
