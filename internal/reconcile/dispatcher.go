package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/metrics"
)

// Task is one verified event waiting to be reconciled.
type Task struct {
	Event *paystackwebhook.WebhookEvent
	// Source records where the event came from (webhook, verify, cron).
	Source string
}

type applier interface {
	Apply(ctx context.Context, ev *paystackwebhook.WebhookEvent) (Outcome, error)
}

type adminAlerter interface {
	AdminAlert(ctx context.Context, title, message string, link *string) error
}

// Dispatcher decouples webhook acknowledgement from reconciliation: the
// HTTP handler enqueues and returns 200, a worker pool drains the queue.
// The queue is bounded; when it is full the event is dropped, counted,
// and escalated to the admin channel, and the provider's retry (or the
// verify endpoint) picks the order up later.
type Dispatcher struct {
	engine  applier
	alerts  adminAlerter
	logg    *logger.Logger
	metrics *metrics.ReconcileMetrics

	queue   chan Task
	workers int
	drain   time.Duration

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// DispatcherOptions sizes the queue and worker pool.
type DispatcherOptions struct {
	QueueSize    int
	Workers      int
	DrainTimeout time.Duration
}

// NewDispatcher builds the reconciliation dispatcher.
func NewDispatcher(engine applier, alerts adminAlerter, opts DispatcherOptions, logg *logger.Logger, m *metrics.ReconcileMetrics) (*Dispatcher, error) {
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reconcile engine required")
	}
	if alerts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin alerter required")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 30 * time.Second
	}
	return &Dispatcher{
		engine:  engine,
		alerts:  alerts,
		logg:    logg,
		metrics: m,
		queue:   make(chan Task, opts.QueueSize),
		workers: opts.Workers,
		drain:   opts.DrainTimeout,
	}, nil
}

// Start launches the worker pool. It is safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-d.queue:
			if !ok {
				return
			}
			d.runTask(ctx, task)
		}
	}
}

// runTask applies one event with its own deadline. A panicking task must
// not take the worker down with it; the delivery is already in the event
// log, so an admin can replay it through the verify endpoint.
func (d *Dispatcher) runTask(ctx context.Context, task Task) {
	// the request context is gone by now; give each task its own
	// deadline detached from the HTTP request
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			if d.logg != nil {
				logCtx := d.taskFields(ctx, task)
				d.logg.Error(logCtx, "reconcile.task_panicked", fmt.Errorf("panic: %v", r))
			}
			if err := d.alerts.AdminAlert(taskCtx, "Reconciliation task panicked",
				fmt.Sprintf("Applying %s for reference %s panicked: %v. The order needs a manual verify.",
					task.Event.Event, task.Event.Reference(), r), nil); err != nil && d.logg != nil {
				d.logg.Error(ctx, "reconcile.admin_alert_failed", err)
			}
		}
	}()

	_, err := d.engine.Apply(taskCtx, task.Event)
	if err != nil && d.logg != nil {
		logCtx := d.taskFields(ctx, task)
		d.logg.Error(logCtx, "reconcile.task_failed", err)
	}
}

func (d *Dispatcher) taskFields(ctx context.Context, task Task) context.Context {
	if d.logg == nil {
		return ctx
	}
	return d.logg.WithFields(ctx, map[string]any{
		"source":     task.Source,
		"event_type": task.Event.Event,
		"reference":  task.Event.Reference(),
	})
}

// Enqueue hands a task to the worker pool without blocking. It reports
// whether the task was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, task Task) bool {
	select {
	case d.queue <- task:
		return true
	default:
		if d.metrics != nil {
			d.metrics.IncQueueDrop()
		}
		if d.logg != nil {
			logCtx := d.logg.WithFields(ctx, map[string]any{
				"source":    task.Source,
				"reference": task.Event.Reference(),
			})
			d.logg.Warn(logCtx, "reconcile.queue_full")
		}
		// a dropped event is a payment the ledger will not see until a
		// retry lands; make sure someone is watching
		if err := d.alerts.AdminAlert(ctx, "Reconciliation queue full",
			fmt.Sprintf("Dropped %s event for reference %s; waiting on the provider retry.",
				task.Event.Event, task.Event.Reference()), nil); err != nil && d.logg != nil {
			d.logg.Error(ctx, "reconcile.admin_alert_failed", err)
		}
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks up to the drain
// timeout.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.drain):
		if d.logg != nil {
			d.logg.Warn(context.Background(), "reconcile.drain_timeout")
		}
	}
}
