package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/internal/services/reconciler"
	"github.com/chorehub/client/pkg/httpcontext"
	"github.com/chorehub/client/repository"
)

type SyncHandler struct {
	baseHandler
	engine *reconciler.Reconciler
	store  repository.SyncQueue
}

func NewSyncHandler(engine *reconciler.Reconciler, store repository.SyncQueue, adapter *httpcontext.Adapter, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
		store:       store,
	}
}

// @Summary Sync status per entity type
// @Tags sync
// @Router /api/v1/sync/status [get]
func (h *SyncHandler) Status(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.engine.Board().All())
}

// @Summary Trigger a background sync cycle
// @Tags sync
// @Router /api/v1/sync/trigger [post]
func (h *SyncHandler) Trigger(ctx *fasthttp.RequestCtx) {
	h.engine.Trigger()
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// @Summary Refresh the cache from the server
// @Tags sync
// @Router /api/v1/sync/refresh [post]
func (h *SyncHandler) Refresh(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.engine.Refresh(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
