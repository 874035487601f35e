package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
)

// TaskClient implements the per-task endpoints of the remote service.
type TaskClient struct {
	base   *Client
	logger *zap.Logger
}

func NewTaskClient(base *Client, logger *zap.Logger) *TaskClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskClient{base: base, logger: logger}
}

// List fetches the server's task set. Malformed records are skipped, never
// fatal for the whole response.
func (c *TaskClient) List(ctx context.Context, enabledOnly bool) ([]domain.Task, error) {
	path := fmt.Sprintf("/tasks/?enabled_only=%t", enabledOnly)
	_, body, err := c.base.do(ctx, fasthttp.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed task list response", err)
	}

	tasks := make([]domain.Task, 0, len(raw))
	for _, record := range raw {
		var t domain.Task
		if err := json.Unmarshal(record, &t); err != nil {
			c.logger.Warn("skipping malformed task record", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// TodayIDs fetches the ids of tasks due today.
func (c *TaskClient) TodayIDs(ctx context.Context) ([]int, error) {
	_, body, err := c.base.do(ctx, fasthttp.MethodGet, "/tasks/today/ids", nil)
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed today ids response", err)
	}
	return ids, nil
}

// Create submits a new task and returns the server record with its assigned
// id and revision.
func (c *TaskClient) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	_, body, err := c.base.do(ctx, fasthttp.MethodPost, "/tasks/", payload)
	if err != nil {
		return nil, err
	}
	return decodeTask(body)
}

// Update submits a revision-carrying update. A structured 409 body surfaces
// as a ConflictError holding the server's authoritative payload.
func (c *TaskClient) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	status, body, err := c.base.do(ctx, fasthttp.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), payload)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusConflict {
		if conflict := parseConflict("task", task.ID, payload, body); conflict != nil {
			return nil, conflict
		}
	}
	return decodeTask(body)
}

// Complete marks the task completed on the server.
func (c *TaskClient) Complete(ctx context.Context, id int) (*domain.Task, error) {
	_, body, err := c.base.do(ctx, fasthttp.MethodPost, fmt.Sprintf("/tasks/%d/complete", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeTask(body)
}

// Uncomplete clears the completed flag on the server.
func (c *TaskClient) Uncomplete(ctx context.Context, id int) (*domain.Task, error) {
	_, body, err := c.base.do(ctx, fasthttp.MethodPost, fmt.Sprintf("/tasks/%d/uncomplete", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeTask(body)
}

// Delete removes the task on the server.
func (c *TaskClient) Delete(ctx context.Context, id int) error {
	_, _, err := c.base.do(ctx, fasthttp.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil)
	return err
}

// SubmitQueue sends one ordered batch of queued operations and returns the
// post-merge records.
func (c *TaskClient) SubmitQueue(ctx context.Context, ops []Operation) ([]BatchRecord, error) {
	return submitQueue(ctx, c.base, "/tasks/sync-queue", ops)
}

func decodeTask(body []byte) (*domain.Task, error) {
	var t domain.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed task response", err)
	}
	return &t, nil
}

func parseConflict(entity string, id int, localPayload, body []byte) *domain.ConflictError {
	var envelope conflictEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Detail == nil {
		return nil
	}
	return &domain.ConflictError{
		Entity:         entity,
		EntityID:       id,
		Message:        envelope.Detail.Message,
		ServerRevision: envelope.Detail.CurrentRevision,
		LocalPayload:   localPayload,
		ServerPayload:  envelope.Detail.ServerData,
	}
}

func submitQueue(ctx context.Context, base *Client, path string, ops []Operation) ([]BatchRecord, error) {
	body, err := json.Marshal(batchRequest{Operations: ops})
	if err != nil {
		return nil, err
	}
	_, respBody, err := base.do(ctx, fasthttp.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var records []BatchRecord
	if err := json.Unmarshal(respBody, &records); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed sync-queue response", err)
	}
	return records, nil
}
