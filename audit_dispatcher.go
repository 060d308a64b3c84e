package sessiongate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/MrEthical07/sessiongate/internal/oneshot"
)

// auditDispatcher moves events off the caller's goroutine onto a single worker. A nil
// dispatcher drops everything, which is what Config.Audit.Enabled=false produces.
type auditDispatcher struct {
	sink       AuditSink
	logger     *slog.Logger
	dropIfFull bool

	queue   chan AuditEvent
	stop    *oneshot.Signal
	stopped chan struct{}
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       oneshot.New(),
		stopped:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer close(d.stopped)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop.Done():
			// flush whatever was queued before Close
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver keeps the worker alive when a sink panics.
func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked", "event", event.EventType, "panic", r)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event. With DropIfFull a full buffer counts a drop instead of blocking;
// otherwise Emit blocks until there is room, ctx ends, or the dispatcher closes.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stop.Fired() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop.Done():
		default:
			d.drop(event)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.stop.Done():
	case <-ctx.Done():
		d.drop(event)
	}
}

func (d *auditDispatcher) drop(event AuditEvent) {
	if d.dropped.Add(1) == 1 {
		d.logger.Warn("audit events are being dropped", "first_dropped", event.EventType)
	}
}

// Close flushes queued events to the sink and waits for the worker. Safe to repeat.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stop.Fire()
	<-d.stopped
}

// Dropped returns how many events never reached the queue.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
