package remote

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/chorehub/client/domain"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { ln.Close() })

	return New(Config{
		BaseURL:        "http://chorehub.test",
		RequestTimeout: time.Second,
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}, nil)
}

func TestDoReturnsBodyForNon500Statuses(t *testing.T) {
	statuses := []int{
		fasthttp.StatusOK,
		fasthttp.StatusBadRequest,
		fasthttp.StatusNotFound,
		fasthttp.StatusConflict,
	}
	for _, want := range statuses {
		client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(want)
			ctx.SetBodyString(`{"outcome":"authoritative"}`)
		})

		status, body, err := client.do(context.Background(), fasthttp.MethodGet, "/tasks/", nil)
		// Anything below 500 is an application outcome, never a transport error.
		require.NoError(t, err, "status %d", want)
		assert.Equal(t, want, status)
		assert.Contains(t, string(body), "authoritative")
	}
}

func TestDoClassifies500AsRemoteError(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	_, _, err := client.do(context.Background(), fasthttp.MethodGet, "/tasks/", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeRemote))
	assert.False(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestDoClassifiesTransportFailureAsUnavailable(t *testing.T) {
	client := New(Config{
		BaseURL:        "http://chorehub.test",
		RequestTimeout: 200 * time.Millisecond,
		Dial: func(addr string) (net.Conn, error) {
			return nil, net.ErrClosed
		},
	}, nil)

	_, _, err := client.do(context.Background(), fasthttp.MethodGet, "/tasks/", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestDoClassifiesCancellationAsUnavailable(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		close(started)
		time.Sleep(500 * time.Millisecond)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, _, err := client.do(ctx, fasthttp.MethodGet, "/tasks/", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestAbandonedCallDoesNotLeakIntoLaterRequests(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/slow" {
			close(inFlight)
			<-release
			ctx.SetBodyString(`{"reply":"late server reply"}`)
			return
		}
		ctx.SetBodyString(`{"reply":"current request"}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-inFlight
		cancel()
	}()

	_, _, err := client.do(ctx, fasthttp.MethodGet, "/slow", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))

	// Let the abandoned call finish writing while fresh requests reuse the
	// client; each must see only its own bytes.
	close(release)
	for i := 0; i < 20; i++ {
		status, body, err := client.do(context.Background(), fasthttp.MethodGet, "/fast", nil)
		require.NoError(t, err)
		assert.Equal(t, fasthttp.StatusOK, status)
		assert.JSONEq(t, `{"reply":"current request"}`, string(body))
	}
}

func TestSelectedUserTravelsAsCookie(t *testing.T) {
	var got string
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		got = string(ctx.Request.Header.Cookie(SessionCookie))
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`[]`)
	})

	client.SelectUser(7)
	_, _, err := client.do(context.Background(), fasthttp.MethodGet, "/tasks/", nil)
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	client.ClearUser()
	_, _, err = client.do(context.Background(), fasthttp.MethodGet, "/tasks/", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateSurfacesStructuredConflict(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusConflict)
		ctx.SetBodyString(`{"detail":{"entity_id":5,"message":"stale revision","current_revision":9,"server_data":{"id":5,"title":"server copy","reminder_time":"08:00","revision":9}}}`)
	})
	tasks := NewTaskClient(client, nil)

	rev := 3
	_, err := tasks.Update(context.Background(), &domain.Task{
		ID:           5,
		Title:        "local copy",
		Type:         domain.TaskOneTime,
		ReminderTime: "08:00",
		Revision:     &rev,
	})
	require.Error(t, err)

	conflict, ok := domain.AsConflict(err)
	require.True(t, ok, "409 with structured detail must surface as ConflictError, got %v", err)
	assert.Equal(t, 5, conflict.EntityID)
	require.NotNil(t, conflict.ServerRevision)
	assert.Equal(t, 9, *conflict.ServerRevision)
	assert.Contains(t, string(conflict.ServerPayload), "server copy")
}

func TestTaskListSkipsMalformedRecords(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`[
			{"id":1,"title":"good","task_type":"one_time","reminder_time":"2026-08-31T08:00:00"},
			{"id":2,"title":"no reminder","task_type":"one_time"},
			{"id":3,"title":"also good","task_type":"one_time","reminder_time":"2026-08-31T09:00:00"}
		]`)
	})
	tasks := NewTaskClient(client, nil)

	got, err := tasks.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, got, 2, "one malformed record never poisons its siblings")
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
}
