// Package worker runs the heartbeat worker: a crash-only process that keeps
// one row of the heartbeat table stamped with the current time.
//
// Every store failure is fatal. Run returns a *core.FatalError and the caller
// exits non-zero; the supervisor restarts the process and startup validation
// re-establishes a known-good table.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/config"
	"github.com/lzjever/streaming-lag/internal/core"
	"github.com/lzjever/streaming-lag/internal/observability"
	"github.com/lzjever/streaming-lag/internal/signals"
	"github.com/lzjever/streaming-lag/internal/store"
	"github.com/lzjever/streaming-lag/internal/supervisor"
)

// Name identifies the worker in logs, metrics and pg_stat_activity.
const Name = "streaming_lag"

// Scheduler arms a repeating timer. Arm replaces any previous schedule and a
// non-positive period disarms.
type Scheduler interface {
	Arm(period time.Duration)
	Stop()
}

type Deps struct {
	Connect    func(ctx context.Context) (store.Session, error)
	Bridge     *signals.Bridge
	Timer      Scheduler
	Supervisor supervisor.Supervisor
	// Reload re-reads settings; nil keeps the startup settings.
	Reload func() (config.Settings, error)
	// Install routes process signals into the bridge; nil installs nothing.
	Install func(*signals.Bridge) (stop func())
	RunID   string
}

type Worker struct {
	// fixed is the startup snapshot; database and schema never change after it.
	fixed   config.Settings
	current config.Settings
	deps    Deps
	log     *zap.Logger

	session store.Session
	client  *store.Client

	state  atomic.Int32
	mu     sync.RWMutex
	status core.Status
}

func New(settings config.Settings, deps Deps, log *zap.Logger) *Worker {
	w := &Worker{
		fixed:   settings,
		current: settings,
		deps:    deps,
		log:     log,
		status: core.Status{
			Worker:      Name,
			RunID:       deps.RunID,
			Database:    settings.Database,
			Schema:      settings.Schema,
			PrecisionMs: settings.Precision,
			StartedAt:   time.Now().UTC(),
		},
	}
	w.setState(core.StateStarting)
	return w
}

// Run drives the worker until a graceful stop (nil) or a fatal condition
// (*core.FatalError). Supervisor loss returns at once without touching the
// store or closing the session.
func (w *Worker) Run(ctx context.Context) error {
	w.setState(core.StateStarting)
	if w.deps.Install != nil {
		stop := w.deps.Install(w.deps.Bridge)
		defer stop()
	}

	if err := w.connect(ctx); err != nil {
		return err
	}
	if err := w.validate(ctx); err != nil {
		return err
	}
	err := w.client.InTx(ctx, "relaxing durability", func(tx store.Txn) error {
		return w.client.RelaxDurability(ctx, tx)
	})
	if err != nil {
		return err
	}

	w.arm(w.current)
	defer w.deps.Timer.Stop()
	w.setState(core.StateIdle)
	w.log.Info("heartbeat loop started",
		zap.String("table", w.client.Table()),
		zap.Int("precision_ms", w.current.Precision),
	)

	if err := w.loop(ctx); err != nil {
		return err
	}

	w.setState(core.StateShuttingDown)
	w.deps.Timer.Stop()
	if err := w.session.Close(context.Background()); err != nil {
		w.log.Warn("close session failed", zap.Error(err))
	}
	w.setState(core.StateTerminated)
	w.log.Info("worker stopped")
	return nil
}

// Check runs startup validation once and disconnects.
func (w *Worker) Check(ctx context.Context) error {
	w.setState(core.StateStarting)
	if err := w.connect(ctx); err != nil {
		return err
	}
	defer w.session.Close(context.Background())
	return w.validate(ctx)
}

func (w *Worker) loop(ctx context.Context) error {
	bridge := w.deps.Bridge
	var lost <-chan struct{}
	if w.deps.Supervisor != nil {
		lost = w.deps.Supervisor.Lost()
	}

	for {
		select {
		case <-lost:
			return w.supervisorLost()
		case <-ctx.Done():
			w.log.Info("context done, stopping")
			return nil
		case <-bridge.Wake():
		}
		select {
		case <-lost:
			return w.supervisorLost()
		default:
		}

		// Fixed priority: terminate, then reload, then tick.
		if bridge.TakeTerminate() {
			observability.WakeupTotal.WithLabelValues("terminate").Inc()
			w.log.Info("terminate requested")
			return nil
		}

		w.setState(core.StateProcessing)
		if bridge.TakeReload() {
			observability.WakeupTotal.WithLabelValues("reload").Inc()
			w.reload()
		}
		if bridge.TakeTick() {
			observability.WakeupTotal.WithLabelValues("tick").Inc()
			if err := w.beat(ctx); err != nil {
				return err
			}
		}
		w.setState(core.StateIdle)
	}
}

func (w *Worker) connect(ctx context.Context) error {
	session, err := w.deps.Connect(ctx)
	if err != nil {
		return core.Fatal(core.ErrConnect,
			fmt.Sprintf("cannot connect to database %q", w.fixed.Database), err)
	}
	w.session = session
	w.client = store.NewClient(session, w.fixed.Schema, w.log)
	return nil
}

func (w *Worker) validate(ctx context.Context) error {
	w.setState(core.StateValidating)
	start := time.Now()
	if err := Validate(ctx, w.client, w.log); err != nil {
		return err
	}
	observability.ValidationDuration.Observe(time.Since(start).Seconds())

	now := time.Now().UTC()
	w.updateStatus(func(s *core.Status) { s.ValidatedAt = &now })
	return nil
}

func (w *Worker) beat(ctx context.Context) error {
	start := time.Now()
	err := w.client.InTx(ctx, "updating heartbeat", func(tx store.Txn) error {
		return w.client.TouchHeartbeat(ctx, tx)
	})
	observability.HeartbeatDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.HeartbeatTotal.WithLabelValues("failed").Inc()
		if fe, ok := core.AsFatal(err); ok {
			fe.Message = "cannot update timestamp: " + fe.Message
		}
		return err
	}

	observability.HeartbeatTotal.WithLabelValues("ok").Inc()
	now := time.Now().UTC()
	observability.HeartbeatLastWrite.Set(float64(now.UnixNano()) / 1e9)
	w.updateStatus(func(s *core.Status) {
		s.LastHeartbeat = &now
		s.Heartbeats++
	})
	return nil
}

// reload applies a new precision. Failures here are recoverable: the worker
// keeps its current settings, as PostgreSQL does for a bad SIGHUP.
func (w *Worker) reload() {
	if w.deps.Reload == nil {
		return
	}
	next, err := w.deps.Reload()
	if err != nil {
		observability.ReloadTotal.WithLabelValues("rejected").Inc()
		w.log.Error("reload rejected, keeping current settings",
			zap.Error(core.NewAppError(core.ErrConfig, err.Error())))
		return
	}

	if changed := w.fixed.RestartRequired(next); len(changed) > 0 {
		w.log.Warn("settings cannot be changed without restarting the worker, ignored",
			zap.Strings("settings", changed))
	}
	w.updateStatus(func(s *core.Status) { s.Reloads++ })

	prev := w.current.Precision
	if next.Precision == prev {
		observability.ReloadTotal.WithLabelValues("unchanged").Inc()
		w.log.Debug("reload: precision unchanged", zap.Int("precision_ms", prev))
		return
	}
	w.current.Precision = next.Precision
	w.arm(w.current)
	observability.ReloadTotal.WithLabelValues("applied").Inc()
	w.log.Info("precision changed",
		zap.Int("from_ms", prev),
		zap.Int("to_ms", next.Precision),
	)
}

func (w *Worker) arm(s config.Settings) {
	w.deps.Timer.Arm(s.Interval())
	observability.PrecisionMillis.Set(float64(s.Precision))
	w.updateStatus(func(st *core.Status) { st.PrecisionMs = s.Precision })
	if s.Precision == 0 {
		w.log.Warn("precision is 0, heartbeat timer disarmed")
	}
}

func (w *Worker) supervisorLost() error {
	return core.Fatal(core.ErrSupervisorLost,
		"supervisor is no longer reachable, exiting immediately", nil)
}

func (w *Worker) setState(s core.State) {
	prev := core.State(w.state.Swap(int32(s)))
	if prev != s {
		observability.WorkerState.WithLabelValues(prev.String()).Set(0)
		w.log.Debug("state transition", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
	observability.WorkerState.WithLabelValues(s.String()).Set(1)
}

func (w *Worker) updateStatus(fn func(*core.Status)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.status)
}

// Status is safe to call from any goroutine.
func (w *Worker) Status() core.Status {
	w.mu.RLock()
	s := w.status
	w.mu.RUnlock()
	s.State = core.State(w.state.Load())
	return s
}
