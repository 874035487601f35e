package remote

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/domain"
)

// SessionCookie carries the selected local user id on every outbound request.
const SessionCookie = "chorehub_user"

// Config controls the outbound HTTP client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	// Dial overrides the transport dialer, used by tests to run against an
	// in-memory listener.
	Dial fasthttp.DialFunc
}

// Client is the base HTTP client for the remote ChoreHub service. The status
// code contract is deliberate and unusual: only a 500-class response is a
// hard failure, every other status is parsed as an authoritative
// application-level outcome.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	userID *int
}

// New constructs the base client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	httpClient := &fasthttp.Client{
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}
	if cfg.Dial != nil {
		httpClient.Dial = cfg.Dial
	}
	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// SelectUser scopes all subsequent requests to the given local user.
func (c *Client) SelectUser(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = &id
}

// ClearUser removes the per-user scoping.
func (c *Client) ClearUser() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = nil
}

// Ping performs a cheap reachability probe against the service health
// endpoint. Any response at all counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, fasthttp.MethodGet, "/health", nil)
	if err != nil && domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		return err
	}
	return nil
}

// do executes one request and classifies the outcome. Transport failures and
// cancellations come back as UNAVAILABLE (transient, retry next cycle); a
// 500-class status comes back as REMOTE (fatal, surfaced to the caller). Any
// other status returns the body for the caller to interpret.
//
// The pooled request and response objects live entirely inside the worker
// goroutine: an abandoned call keeps them until DoDeadline returns and only
// copies cross the channel, so a cancelled request can never leak another
// caller's bytes through the pool.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	c.mu.RLock()
	var cookie string
	if c.userID != nil {
		cookie = strconv.Itoa(*c.userID)
	}
	c.mu.RUnlock()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	type result struct {
		status int
		body   []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.Header.SetMethod(method)
		req.SetRequestURI(c.baseURL + path)
		if len(body) > 0 {
			req.Header.SetContentType("application/json")
			req.SetBody(body)
		}
		if cookie != "" {
			req.Header.SetCookie(SessionCookie, cookie)
		}

		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			done <- result{err: err}
			return
		}
		done <- result{
			status: resp.StatusCode(),
			body:   append([]byte(nil), resp.Body()...),
		}
	}()

	var res result
	select {
	case <-ctx.Done():
		// The in-flight request is abandoned; the queue item stays pending
		// and no local state changes.
		return 0, nil, domain.WrapError(domain.ErrCodeUnavailable, "request cancelled", ctx.Err())
	case res = <-done:
		if res.err != nil {
			return 0, nil, domain.WrapError(domain.ErrCodeUnavailable, "remote service unreachable", res.err)
		}
	}

	if res.status >= fasthttp.StatusInternalServerError {
		c.logger.Warn("remote service error",
			zap.String("path", path),
			zap.Int("status", res.status))
		return res.status, res.body, domain.NewError(domain.ErrCodeRemote,
			fmt.Sprintf("remote service returned %d", res.status))
	}
	return res.status, res.body, nil
}
