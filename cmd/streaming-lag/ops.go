package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/api"
	"github.com/lzjever/streaming-lag/internal/core"
)

const opsShutdownTimeout = 5 * time.Second

type opsServer struct {
	srv *http.Server
	log *zap.Logger
}

// startOps serves health, readiness, status and metrics. An empty addr
// disables the server. A listener failure is logged and does not stop the
// heartbeat.
func startOps(addr string, source api.StatusSource, reg *prometheus.Registry, log *zap.Logger) *opsServer {
	if addr == "" {
		return &opsServer{log: log}
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewAPI(source, reg, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("ops server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server failed", zap.Error(err))
		}
	}()
	return &opsServer{srv: srv, log: log}
}

// stop drains the ops server after the worker returned runErr. Supervisor
// loss skips it: the process must exit at once.
func (o *opsServer) stop(runErr error) {
	if o.srv == nil {
		return
	}
	if fe, ok := core.AsFatal(runErr); ok && fe.Code == core.ErrSupervisorLost {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
	defer cancel()
	if err := o.srv.Shutdown(ctx); err != nil {
		o.log.Warn("ops server shutdown", zap.Error(err))
	}
}
