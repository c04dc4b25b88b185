package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
)

func shutdownRecorder() (*opsServer, <-chan struct{}) {
	called := make(chan struct{}, 1)
	srv := &http.Server{}
	srv.RegisterOnShutdown(func() { called <- struct{}{} })
	return &opsServer{srv: srv, log: zap.NewNop()}, called
}

func TestOpsStop_GracefulAfterCleanExit(t *testing.T) {
	for _, err := range []error{nil, core.Fatal(core.ErrStore, "cannot update timestamp", nil)} {
		ops, called := shutdownRecorder()
		ops.stop(err)
		select {
		case <-called:
		case <-time.After(time.Second):
			t.Fatalf("ops server not shut down after %v", err)
		}
	}
}

func TestOpsStop_SkippedOnSupervisorLoss(t *testing.T) {
	ops, called := shutdownRecorder()
	ops.stop(core.Fatal(core.ErrSupervisorLost, "supervisor is no longer reachable", nil))

	assert.Never(t, func() bool { return len(called) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestOpsStop_Disabled(t *testing.T) {
	ops := startOps("", nil, nil, zap.NewNop())
	assert.NotPanics(t, func() { ops.stop(nil) })
}
