// Package reconciler drives AssetClient.Reconcile on a fixed interval.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
)

type Target interface {
	Reconcile(ctx context.Context) ([]assetclient.Event, error)
}

// TickFunc observes the outcome of every run.
type TickFunc func(events []assetclient.Event, err error)

type Option func(*Reconciler)

// WithTickTimeout bounds a single run.
func WithTickTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.tickTimeout = d }
}

func WithTickFunc(fn TickFunc) Option {
	return func(r *Reconciler) { r.onTick = fn }
}

type Reconciler struct {
	target      Target
	interval    time.Duration
	tickTimeout time.Duration
	onTick      TickFunc

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
}

func New(target Target, interval time.Duration, opts ...Option) (*Reconciler, error) {
	if target == nil {
		return nil, errors.New("reconciler: missing target")
	}
	if interval <= 0 {
		return nil, errors.Newf("reconciler: invalid interval %s", interval)
	}

	r := &Reconciler{
		target:      target,
		interval:    interval,
		tickTimeout: 2 * interval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start schedules the job. Singleton mode keeps the scheduler from starting a
// second run while one is in flight; it queues the run instead. A call that still
// overlaps returns at once because the client refuses to reconcile concurrently.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return errors.New("reconciler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if _, err := s.Every(r.interval).WaitForSchedule().Do(func() { r.RunOnce(runCtx) }); err != nil {
		cancel()
		return errors.Wrap(err, "schedule reconcile job")
	}
	s.StartAsync()

	r.scheduler = s
	r.cancel = cancel
	log.Info("reconciler started", "interval", r.interval.String())
	return nil
}

// Stop cancels an in-flight run and waits for the scheduler to wind down.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler == nil {
		return
	}
	r.cancel()
	r.scheduler.Stop()
	r.scheduler = nil
	r.cancel = nil
	log.Info("reconciler stopped")
}

// RunOnce runs a single reconcile pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tickCtx, cancel := context.WithTimeout(ctx, r.tickTimeout)
	defer cancel()

	events, err := r.target.Reconcile(tickCtx)
	if err != nil {
		log.Warn("reconcile pass incomplete", "error", err)
	}
	for _, ev := range events {
		switch ev.Kind {
		case assetclient.EventConfirmed:
			log.Info("operation settled", "kind", string(ev.Kind), "tx", ev.Operation.TxID, "card", ev.Operation.AssetID)
		default:
			log.Warn("operation settled", "kind", string(ev.Kind), "tx", ev.Operation.TxID, "error", ev.Err)
		}
	}
	if r.onTick != nil {
		r.onTick(events, err)
	}
}
