package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
)

// Recoverer turns a handler panic into a LAG_INTERNAL response. A panic on
// the ops surface must never take the heartbeat worker down with it.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}
				log.Error("ops handler panicked",
					zap.Any("panic", rvr),
					zap.String("route", routePattern(r)),
					zap.ByteString("stack", debug.Stack()),
					zap.String("request_id", GetRequestID(r)),
				)
				// Headers already on the wire cannot be replaced.
				if ww.Status() != 0 {
					return
				}
				ww.Header().Set("Content-Type", "application/json")
				ww.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(ww).Encode(core.NewAppError(core.ErrInternal, "internal server error"))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
