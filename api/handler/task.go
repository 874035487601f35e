package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/api/transport"
	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/pkg/httpcontext"
	"github.com/chorehub/client/repository"
	taskUC "github.com/chorehub/client/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	filter := repository.TaskFilter{
		EnabledOnly:   string(ctx.QueryArgs().Peek("enabled_only")) == "true",
		CompletedOnly: string(ctx.QueryArgs().Peek("completed_only")) == "true",
	}
	if raw := string(ctx.QueryArgs().Peek("group_id")); raw != "" {
		if id, err := parseInt(raw); err == nil {
			filter.GroupID = &id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Task ids due today
// @Tags tasks
// @Router /api/v1/tasks/today/ids [get]
func (h *TaskHandler) GetTodayIDs(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ids, err := h.uc.TodayIDs(stdCtx, time.Now())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, ids)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	task, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, task)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}
	task, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, task)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Complete task
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	h.flipCompleted(ctx, true)
}

// @Summary Uncomplete task
// @Tags tasks
// @Router /api/v1/tasks/{id}/uncomplete [post]
func (h *TaskHandler) UncompleteTask(ctx *fasthttp.RequestCtx) {
	h.flipCompleted(ctx, false)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func (h *TaskHandler) flipCompleted(ctx *fasthttp.RequestCtx, completed bool) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		task *domain.Task
		err  error
	)
	if completed {
		task, err = h.uc.Complete(stdCtx, id)
	} else {
		task, err = h.uc.Uncomplete(stdCtx, id)
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func (h *TaskHandler) parseTask(ctx *fasthttp.RequestCtx) (*domain.Task, bool) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}

	task := &domain.Task{
		Title:           req.Title,
		Description:     req.Description,
		ReminderTime:    req.ReminderTime,
		GroupID:         req.GroupID,
		AssignedUserIDs: req.AssignedUserIDs,
		Revision:        req.Revision,
		Enabled:         true,
	}
	if req.Enabled != nil {
		task.Enabled = *req.Enabled
	}

	switch domain.TaskType(req.TaskType) {
	case domain.TaskRecurring:
		task.SetType(domain.TaskRecurring)
		task.Recurrence = &domain.Recurrence{Type: req.RecurrenceType, Interval: req.Interval}
	case domain.TaskInterval:
		task.SetType(domain.TaskInterval)
		task.IntervalDays = req.IntervalDays
	default:
		task.SetType(domain.TaskOneTime)
	}

	return task, true
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(value)
}
