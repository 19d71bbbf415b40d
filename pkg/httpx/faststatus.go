package httpx

import (
	"github.com/valyala/fasthttp"

	"timelined/pkg/logger"
)

// FastStatusServer is a minimal sidecar listener answering liveness
// and readiness probes without touching the main API stack. It is
// cheap enough to poll aggressively.
type FastStatusServer struct {
	srv   *fasthttp.Server
	ready func() bool
}

func NewFastStatusServer(ready func() bool) *FastStatusServer {
	s := &FastStatusServer{ready: ready}
	s.srv = &fasthttp.Server{
		Handler:          s.handle,
		DisableKeepalive: true,
		GetOnly:          true,
	}
	return s
}

func (s *FastStatusServer) handle(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`{"status":"ok"}`)
	case "/readyz":
		if s.ready == nil || s.ready() {
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString(`{"status":"ready"}`)
		} else {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"status":"not ready"}`)
		}
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString(`{"error":"not found"}`)
	}
}

// ListenAndServe blocks serving probes on addr.
func (s *FastStatusServer) ListenAndServe(addr string) error {
	logger.Info("status_listener_started", "addr", addr)
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops the listener.
func (s *FastStatusServer) Shutdown() error {
	return s.srv.Shutdown()
}
