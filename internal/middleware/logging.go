package middleware

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// RequestLog wraps handlers with a structured access log line. The local API
// is loopback-only; there is no authentication layer here, identity comes
// from the selected-user session applied to outbound requests.
func RequestLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			next(ctx)
			logger.Debug("request",
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", ctx.Response.StatusCode()))
		}
	}
}
