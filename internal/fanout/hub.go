package fanout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

const (
	// DefaultQueueSize is used when NewHub gets a non-positive size.
	DefaultQueueSize = 1024

	// drainTimeout bounds delivery of events still queued at shutdown.
	drainTimeout = 2 * time.Second
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink receives events from the Hub. Deliver is called from the Run
// goroutine only, one event at a time.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Stats are the Hub's counters since creation.
type Stats struct {
	Queued     uint64 `json:"queued"`
	Delivered  uint64 `json:"delivered"`
	Dropped    uint64 `json:"dropped"`
	SinkErrors uint64 `json:"sink_errors"`
	Pending    int    `json:"pending"`
}

// Hub turns registry notifications into queued events. It implements
// xgparam.Observer and xgparam.TableObserver; attach it with
// Registry.Watch.
type Hub struct {
	queue chan Event
	now   func() time.Time

	sinksMu sync.RWMutex
	sinks   []Sink

	logger Logger

	queued     atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	sinkErrors atomic.Uint64
}

// NewHub creates a hub with a queue of queueSize events.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		queue:  make(chan Event, queueSize),
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for drops and sink failures.
func (h *Hub) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	h.logger = l
}

// AddSink registers a sink. Sinks added while Run is active receive the
// next event onwards.
func (h *Hub) AddSink(s Sink) {
	h.sinksMu.Lock()
	h.sinks = append(h.sinks, s)
	h.sinksMu.Unlock()
}

// OnUpdate implements xgparam.Observer.
func (h *Hub) OnUpdate(p *xgparam.Parameter) {
	h.enqueue(parameterEvent(KindUpdate, p, h.now()))
}

// OnReset implements xgparam.Observer.
func (h *Hub) OnReset(p *xgparam.Parameter) {
	h.enqueue(parameterEvent(KindReset, p, h.now()))
}

// OnTableReset implements xgparam.TableObserver. Besides the table event
// it queues the values of the newly current effect parameters, which
// sinks would otherwise never see until they change.
func (h *Hub) OnTableReset(t *xgparam.Table) {
	now := h.now()
	h.enqueue(tableEvent(t, now))

	if !t.Category().IsEffect() {
		return
	}
	if g := t.CurrentGroup(); g != nil {
		for _, p := range g.Parameters() {
			h.enqueue(parameterEvent(KindUpdate, p, now))
		}
	}
}

// Publish queues an event built outside the registry, such as a
// whole-state resync.
func (h *Hub) Publish(ev Event) {
	h.enqueue(ev)
}

func (h *Hub) enqueue(ev Event) {
	select {
	case h.queue <- ev:
		h.queued.Add(1)
	default:
		// Log on powers of two so a stalled sink cannot flood the log.
		if n := h.dropped.Add(1); n&(n-1) == 0 {
			h.logger.Warn("fanout queue full, dropping event",
				"address", ev.Address, "kind", ev.Kind, "dropped", n)
		}
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left with a short deadline.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-h.queue:
			h.deliver(ctx, ev)
		case <-ctx.Done():
			h.drain(ctx)
			return nil
		}
	}
}

func (h *Hub) drain(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-h.queue:
			h.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (h *Hub) deliver(ctx context.Context, ev Event) {
	h.sinksMu.RLock()
	sinks := h.sinks
	h.sinksMu.RUnlock()

	for _, s := range sinks {
		if err := h.safeDeliver(ctx, s, ev); err != nil {
			h.sinkErrors.Add(1)
			h.logger.Warn("fanout sink failed", "sink", s.Name(), "address", ev.Address, "error", err)
		}
	}
	h.delivered.Add(1)
}

// safeDeliver keeps a panicking sink from stopping delivery to the rest.
func (h *Hub) safeDeliver(ctx context.Context, s Sink, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("fanout sink panic recovered", "sink", s.Name(), "panic", r)
			err = fmt.Errorf("sink %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Deliver(ctx, ev)
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Queued:     h.queued.Load(),
		Delivered:  h.delivered.Load(),
		Dropped:    h.dropped.Load(),
		SinkErrors: h.sinkErrors.Load(),
		Pending:    len(h.queue),
	}
}
