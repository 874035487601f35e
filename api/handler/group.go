package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/api/transport"
	"github.com/chorehub/client/domain"
	"github.com/chorehub/client/pkg/httpcontext"
	groupUC "github.com/chorehub/client/usecase/group"
)

type GroupHandler struct {
	baseHandler
	uc *groupUC.UseCase
}

func NewGroupHandler(uc *groupUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List groups
// @Tags groups
// @Router /api/v1/groups [get]
func (h *GroupHandler) GetGroups(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	groups, err := h.uc.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, groups)
}

// @Summary Create group
// @Tags groups
// @Router /api/v1/groups [post]
func (h *GroupHandler) CreateGroup(ctx *fasthttp.RequestCtx) {
	group, ok := h.parseGroup(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, group)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update group
// @Tags groups
// @Router /api/v1/groups/{id} [put]
func (h *GroupHandler) UpdateGroup(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing group id", nil))
		return
	}
	group, ok := h.parseGroup(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, group)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete group
// @Tags groups
// @Router /api/v1/groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing group id", nil))
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

func (h *GroupHandler) parseGroup(ctx *fasthttp.RequestCtx) (*domain.Group, bool) {
	var req transport.GroupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	return &domain.Group{
		Name:          req.Name,
		Description:   req.Description,
		CreatedBy:     req.CreatedBy,
		MemberUserIDs: req.MemberUserIDs,
	}, true
}
