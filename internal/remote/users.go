package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
)

// UserClient implements the per-user endpoints of the remote service.
type UserClient struct {
	base   *Client
	logger *zap.Logger
}

func NewUserClient(base *Client, logger *zap.Logger) *UserClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserClient{base: base, logger: logger}
}

func (c *UserClient) List(ctx context.Context) ([]domain.User, error) {
	_, body, err := c.base.do(ctx, fasthttp.MethodGet, "/users/", nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed user list response", err)
	}

	users := make([]domain.User, 0, len(raw))
	for _, record := range raw {
		var u domain.User
		if err := json.Unmarshal(record, &u); err != nil {
			c.logger.Warn("skipping malformed user record", zap.Error(err))
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (c *UserClient) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	_, body, err := c.base.do(ctx, fasthttp.MethodPost, "/users/", payload)
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

func (c *UserClient) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	status, body, err := c.base.do(ctx, fasthttp.MethodPut, fmt.Sprintf("/users/%d", user.ID), payload)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusConflict {
		if conflict := parseConflict("user", user.ID, payload, body); conflict != nil {
			return nil, conflict
		}
	}
	return decodeUser(body)
}

func (c *UserClient) Delete(ctx context.Context, id int) error {
	_, _, err := c.base.do(ctx, fasthttp.MethodDelete, fmt.Sprintf("/users/%d", id), nil)
	return err
}

func (c *UserClient) SubmitQueue(ctx context.Context, ops []Operation) ([]BatchRecord, error) {
	return submitQueue(ctx, c.base, "/users/sync-queue", ops)
}

func decodeUser(body []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed user response", err)
	}
	return &u, nil
}
