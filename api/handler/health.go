package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/api/transport"
	"github.com/chorehub/client/internal/infrastructure/monitor"
	"github.com/chorehub/client/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"remote":    status.Remote,
		"cache":     status.Cache,
		"queue": map[string]interface{}{
			"size":  status.QueueSize,
			"bytes": status.QueueBytes,
		},
	}

	// The daemon stays healthy while offline; only a broken local cache
	// degrades it. Offline is a normal operating mode.
	if status.Cache {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "local cache unavailable", payload))
}
