package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/api/transport"
	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/internal/remote"
	"github.com/chorehub/client/pkg/httpcontext"
	userUC "github.com/chorehub/client/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc      *userUC.UseCase
	session *remote.Client
}

func NewUserHandler(uc *userUC.UseCase, session *remote.Client, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		session:     session,
	}
}

// @Summary List users
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) GetUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Create user
// @Tags users
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(ctx *fasthttp.RequestCtx) {
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update user
// @Tags users
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing user id", nil))
		return
	}
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete user
// @Tags users
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing user id", nil))
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

// @Summary Select active user
// @Tags session
// @Router /api/v1/session/user [put]
func (h *UserHandler) SelectUser(ctx *fasthttp.RequestCtx) {
	var req transport.SessionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if req.UserID == 0 {
		h.session.ClearUser()
		h.respondSuccess(ctx, http.StatusOK, nil)
		return
	}
	user, err := h.uc.Get(stdCtx, req.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.session.SelectUser(user.ID)
	h.respondSuccess(ctx, http.StatusOK, user)
}

func (h *UserHandler) parseUser(ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	var req transport.UserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	user := &domain.User{
		Name:   req.Name,
		Email:  req.Email,
		Role:   domain.Role(req.Role),
		Active: true,
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	return user, true
}
