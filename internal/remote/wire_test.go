package remote

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorehub/client/internal/infrastructure/queue"
)

func TestEncodeOperationLightOp(t *testing.T) {
	ts := time.Date(2026, 8, 31, 12, 0, 0, 500, time.UTC)
	op := EncodeOperation(queue.Item{
		Operation:  queue.OpComplete,
		Entity:     queue.EntityTask,
		EntityID:   42,
		ClientOpID: "op-1",
		Timestamp:  ts,
	})

	assert.Equal(t, "complete", op.Operation)
	assert.Equal(t, ts.Format(time.RFC3339Nano), op.Timestamp)
	require.NotNil(t, op.TaskID)
	assert.Equal(t, 42, *op.TaskID)
	assert.Nil(t, op.GroupID)
	assert.Nil(t, op.UserID)
	assert.Empty(t, op.Payload)

	encoded, err := json.Marshal(op)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "payload")
	assert.NotContains(t, string(encoded), "group_id")
}

func TestEncodeOperationOmitsPlaceholderID(t *testing.T) {
	op := EncodeOperation(queue.Item{
		Operation:  queue.OpCreate,
		Entity:     queue.EntityTask,
		EntityID:   -3,
		ClientOpID: "op-2",
		Timestamp:  time.Now(),
		Payload:    json.RawMessage(`{"title":"new"}`),
	})

	assert.Nil(t, op.TaskID, "placeholder ids stay on the device")
	assert.JSONEq(t, `{"title":"new"}`, string(op.Payload))
}

func TestEncodeOperationPerEntityIDField(t *testing.T) {
	group := EncodeOperation(queue.Item{
		Operation: queue.OpDelete,
		Entity:    queue.EntityGroup,
		EntityID:  7,
		Timestamp: time.Now(),
	})
	require.NotNil(t, group.GroupID)
	assert.Equal(t, 7, *group.GroupID)
	assert.Nil(t, group.TaskID)

	user := EncodeOperation(queue.Item{
		Operation: queue.OpDelete,
		Entity:    queue.EntityUser,
		EntityID:  8,
		Timestamp: time.Now(),
	})
	require.NotNil(t, user.UserID)
	assert.Equal(t, 8, *user.UserID)
}

func TestBatchRecordUnmarshal(t *testing.T) {
	raw := `[
		{"id": 1, "title": "plain entity", "reminder_time": "08:00"},
		{"conflict": {"entity_id": 9, "message": "revision mismatch", "current_revision": 4, "server_data": {"id": 9, "revision": 4}}}
	]`

	var records []BatchRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 2)

	assert.Nil(t, records[0].Conflict)
	assert.Contains(t, string(records[0].Entity), "plain entity")

	require.NotNil(t, records[1].Conflict)
	assert.Equal(t, 9, records[1].Conflict.EntityID)
	assert.Equal(t, "revision mismatch", records[1].Conflict.Message)
	require.NotNil(t, records[1].Conflict.CurrentRevision)
	assert.Equal(t, 4, *records[1].Conflict.CurrentRevision)
	assert.Contains(t, string(records[1].Conflict.ServerData), `"revision":`)
	assert.Empty(t, records[1].Entity)
}

func TestParseConflict(t *testing.T) {
	local := json.RawMessage(`{"id":5,"title":"mine"}`)
	body := []byte(`{"detail":{"entity_id":5,"message":"stale revision","current_revision":8,"server_data":{"id":5,"title":"theirs","revision":8}}}`)

	conflict := parseConflict("task", 5, local, body)
	require.NotNil(t, conflict)
	assert.Equal(t, "task", conflict.Entity)
	assert.Equal(t, 5, conflict.EntityID)
	assert.Equal(t, "stale revision", conflict.Message)
	require.NotNil(t, conflict.ServerRevision)
	assert.Equal(t, 8, *conflict.ServerRevision)
	assert.JSONEq(t, string(local), string(conflict.LocalPayload))
	assert.Contains(t, string(conflict.ServerPayload), "theirs")

	assert.Nil(t, parseConflict("task", 5, local, []byte(`{"error":"plain"}`)),
		"unstructured 409 bodies are not conflicts")
}
