package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fitlife-ai/internal/app"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey int

const sessionKey ctxKey = iota

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.opts.Collectors != nil {
			s.opts.Collectors.ObserveRequest(route, strconv.Itoa(status))
		}

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// sentryHub gives every request its own hub so captured errors carry the
// request. Without a configured client capturing is a no-op.
func sentryHub(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(r)
		next.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), hub)))
	})
}

// sessionMiddleware resolves the session id. Controllers are only created by
// state-changing requests, so visitors that merely read hold no memory.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.opts.Sessions.Resolve(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// controller returns the request's controller, creating it if needed.
func (s *Server) controller(r *http.Request) *app.Controller {
	return s.opts.Registry.Get(sessionFrom(r.Context()))
}

// snapshot reads the request's state without creating a controller.
func (s *Server) snapshot(r *http.Request) app.Snapshot {
	return s.opts.Registry.Snapshot(sessionFrom(r.Context()))
}

func captureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
