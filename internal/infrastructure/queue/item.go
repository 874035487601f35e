package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chorehub/client/domain"
)

// Operation identifies the intent a queue item carries.
type Operation string

const (
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpComplete   Operation = "complete"
	OpUncomplete Operation = "uncomplete"
	OpDelete     Operation = "delete"
)

// Light reports whether the operation travels without an entity payload.
// Complete, uncomplete and delete only need the entity ID; create and update
// always carry a full snapshot.
func (op Operation) Light() bool {
	switch op {
	case OpComplete, OpUncomplete, OpDelete:
		return true
	}
	return false
}

// Entity identifies which record type a queue item mutates.
type Entity string

const (
	EntityTask  Entity = "task"
	EntityGroup Entity = "group"
	EntityUser  Entity = "user"
)

// Status tracks a queue item through its lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusFailed  Status = "failed"
)

// Item represents one pending mutation awaiting reconciliation with the
// server. The timestamp is the ordering key the server replays mutations by.
type Item struct {
	ID         uint64          `json:"id"`
	ClientOpID string          `json:"client_op_id"`
	Operation  Operation       `json:"operation"`
	Entity     Entity          `json:"entity"`
	EntityID   int             `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Revision   *int            `json:"revision,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retry_count"`
	LastRetry  time.Time       `json:"last_retry,omitempty"`
	Status     Status          `json:"status"`
	SizeBytes  int             `json:"size_bytes"`
	FailReason string          `json:"fail_reason,omitempty"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ClientOpID == "" {
		i.ClientOpID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	i.SizeBytes = len(i.Payload)
}

// Validate enforces the light/full payload invariant.
func (i *Item) Validate() error {
	switch i.Operation {
	case OpCreate, OpUpdate, OpComplete, OpUncomplete, OpDelete:
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown queue operation "+string(i.Operation))
	}
	switch i.Entity {
	case EntityTask, EntityGroup, EntityUser:
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown queue entity "+string(i.Entity))
	}
	if i.Operation.Light() {
		if len(i.Payload) != 0 {
			return domain.NewError(domain.ErrCodeInvalid, "light operation must not carry a payload")
		}
		if i.EntityID == 0 {
			return domain.NewError(domain.ErrCodeInvalid, "light operation requires an entity id")
		}
		return nil
	}
	if len(i.Payload) == 0 {
		return domain.NewError(domain.ErrCodeInvalid, "full operation requires a payload")
	}
	return nil
}
