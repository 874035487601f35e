package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/chorehub/client/api/handler"
	"github.com/chorehub/client/internal/services/notify"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Group  *apiHandler.GroupHandler
	User   *apiHandler.UserHandler
	Sync   *apiHandler.SyncHandler
	Health *apiHandler.HealthHandler
	Feed   *notify.Hub
}

func New(handlers Handlers, wrap func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.GET("/ws", handlers.Feed.Serve)

	// Task routes
	r.GET("/api/v1/tasks", wrap(handlers.Task.GetTasks))
	r.GET("/api/v1/tasks/today/ids", wrap(handlers.Task.GetTodayIDs))
	r.POST("/api/v1/tasks", wrap(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{id}", wrap(handlers.Task.UpdateTask))
	r.POST("/api/v1/tasks/{id}/complete", wrap(handlers.Task.CompleteTask))
	r.POST("/api/v1/tasks/{id}/uncomplete", wrap(handlers.Task.UncompleteTask))
	r.DELETE("/api/v1/tasks/{id}", wrap(handlers.Task.DeleteTask))

	// Group routes
	r.GET("/api/v1/groups", wrap(handlers.Group.GetGroups))
	r.POST("/api/v1/groups", wrap(handlers.Group.CreateGroup))
	r.PUT("/api/v1/groups/{id}", wrap(handlers.Group.UpdateGroup))
	r.DELETE("/api/v1/groups/{id}", wrap(handlers.Group.DeleteGroup))

	// User and session routes
	r.GET("/api/v1/users", wrap(handlers.User.GetUsers))
	r.POST("/api/v1/users", wrap(handlers.User.CreateUser))
	r.PUT("/api/v1/users/{id}", wrap(handlers.User.UpdateUser))
	r.DELETE("/api/v1/users/{id}", wrap(handlers.User.DeleteUser))
	r.PUT("/api/v1/session/user", wrap(handlers.User.SelectUser))

	// Sync routes
	r.GET("/api/v1/sync/status", wrap(handlers.Sync.Status))
	r.POST("/api/v1/sync/trigger", wrap(handlers.Sync.Trigger))
	r.POST("/api/v1/sync/refresh", wrap(handlers.Sync.Refresh))

	return r
}
