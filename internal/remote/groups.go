package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
)

// GroupClient implements the per-group endpoints of the remote service.
type GroupClient struct {
	base   *Client
	logger *zap.Logger
}

func NewGroupClient(base *Client, logger *zap.Logger) *GroupClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupClient{base: base, logger: logger}
}

func (c *GroupClient) List(ctx context.Context) ([]domain.Group, error) {
	_, body, err := c.base.do(ctx, fasthttp.MethodGet, "/groups/", nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed group list response", err)
	}

	groups := make([]domain.Group, 0, len(raw))
	for _, record := range raw {
		var g domain.Group
		if err := json.Unmarshal(record, &g); err != nil {
			c.logger.Warn("skipping malformed group record", zap.Error(err))
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (c *GroupClient) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	payload, err := json.Marshal(group)
	if err != nil {
		return nil, err
	}
	_, body, err := c.base.do(ctx, fasthttp.MethodPost, "/groups/", payload)
	if err != nil {
		return nil, err
	}
	return decodeGroup(body)
}

func (c *GroupClient) Update(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	payload, err := json.Marshal(group)
	if err != nil {
		return nil, err
	}
	status, body, err := c.base.do(ctx, fasthttp.MethodPut, fmt.Sprintf("/groups/%d", group.ID), payload)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusConflict {
		if conflict := parseConflict("group", group.ID, payload, body); conflict != nil {
			return nil, conflict
		}
	}
	return decodeGroup(body)
}

func (c *GroupClient) Delete(ctx context.Context, id int) error {
	_, _, err := c.base.do(ctx, fasthttp.MethodDelete, fmt.Sprintf("/groups/%d", id), nil)
	return err
}

func (c *GroupClient) SubmitQueue(ctx context.Context, ops []Operation) ([]BatchRecord, error) {
	return submitQueue(ctx, c.base, "/groups/sync-queue", ops)
}

func decodeGroup(body []byte) (*domain.Group, error) {
	var g domain.Group
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed group response", err)
	}
	return &g, nil
}
