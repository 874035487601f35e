package remote

import (
	"encoding/json"
	"time"

	"github.com/chorehub/client/internal/infrastructure/queue"
)

// Operation is the wire shape of one queued mutation. Light operations omit
// the payload; create operations omit the id (placeholders never leave the
// device). The server deduplicates re-submissions by client_op_id.
type Operation struct {
	Operation  string          `json:"operation"`
	Timestamp  string          `json:"timestamp"`
	ClientOpID string          `json:"client_op_id,omitempty"`
	TaskID     *int            `json:"task_id,omitempty"`
	GroupID    *int            `json:"group_id,omitempty"`
	UserID     *int            `json:"user_id,omitempty"`
	Revision   *int            `json:"revision,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// batchRequest is the body of the sync-queue endpoint, operations sorted by
// timestamp ascending.
type batchRequest struct {
	Operations []Operation `json:"operations"`
}

// EncodeOperation converts a queue item into its wire form.
func EncodeOperation(item queue.Item) Operation {
	op := Operation{
		Operation:  string(item.Operation),
		Timestamp:  item.Timestamp.UTC().Format(time.RFC3339Nano),
		ClientOpID: item.ClientOpID,
		Revision:   item.Revision,
		Payload:    item.Payload,
	}
	if item.EntityID > 0 {
		id := item.EntityID
		switch item.Entity {
		case queue.EntityGroup:
			op.GroupID = &id
		case queue.EntityUser:
			op.UserID = &id
		default:
			op.TaskID = &id
		}
	}
	return op
}

// ConflictDetail is the structured revision-mismatch indicator the server
// embeds in conflict responses. server_data is the authoritative entity.
type ConflictDetail struct {
	EntityID        int             `json:"entity_id"`
	Message         string          `json:"message"`
	CurrentRevision *int            `json:"current_revision"`
	ServerData      json.RawMessage `json:"server_data"`
}

// conflictEnvelope is the 409 body of a single-entity update.
type conflictEnvelope struct {
	Detail *ConflictDetail `json:"detail"`
}

// BatchRecord is one entry of a sync-queue response: either the post-merge
// entity state or a structured conflict indicator.
type BatchRecord struct {
	Conflict *ConflictDetail
	Entity   json.RawMessage
}

func (r *BatchRecord) UnmarshalJSON(data []byte) error {
	var probe struct {
		Conflict *ConflictDetail `json:"conflict"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Conflict != nil {
		r.Conflict = probe.Conflict
		return nil
	}
	r.Entity = append(r.Entity[:0], data...)
	return nil
}
