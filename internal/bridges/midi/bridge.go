package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/sysex"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

const (
	// defaultQueueSize bounds the outgoing message queue.
	defaultQueueSize = 4096

	// systemOnDelay is the pause XG devices need after XG System On
	// before they accept parameter data.
	systemOnDelay = 50 * time.Millisecond
)

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bridge.
type Options struct {
	// Registry is the parameter registry the bridge mirrors. Required.
	Registry *xgparam.Registry

	// Out is the port parameter changes are sent to. Required.
	Out Port

	// In is the port device messages are read from. Optional.
	In Listener

	// Device is the XG device number (0-15).
	Device uint8

	// SendInterval is the minimum gap between two outgoing messages.
	SendInterval time.Duration

	// QueueSize bounds the outgoing queue; 0 selects a default.
	QueueSize int

	// SyncOnStart sends XG System On and the complete current state when
	// the bridge starts.
	SyncOnStart bool

	// RequestOnStart asks the device for every current parameter when the
	// bridge starts.
	RequestOnStart bool

	Logger Logger
}

// outgoing is one queued message; pause delays the message after it.
type outgoing struct {
	msg   gomidi.Message
	pause time.Duration
}

// Bridge mirrors the registry to an XG device and back.
//
// Thread Safety: registry callbacks arrive under the registry lock and
// only enqueue; all port writes happen on the writer goroutine.
type Bridge struct {
	reg    *xgparam.Registry
	out    Port
	in     Listener
	device uint8
	opts   Options

	queue      chan outgoing
	stopListen func()

	started  atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	sent     atomic.Uint64
	received atomic.Uint64
	applied  atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a bridge. Call Start to attach it to the registry and
// begin sending.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Out == nil {
		return nil, fmt.Errorf("output port is required")
	}
	if opts.Device > sysex.MaxDevice {
		return nil, fmt.Errorf("device number %d out of range 0-%d", opts.Device, sysex.MaxDevice)
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	return &Bridge{
		reg:    opts.Registry,
		out:    opts.Out,
		in:     opts.In,
		device: opts.Device,
		opts:   opts,
		queue:  make(chan outgoing, size),
		done:   make(chan struct{}),
		logger: opts.Logger,
	}, nil
}

// Start attaches the bridge to the registry, starts the writer and the
// input listener, and performs the configured start-up sync. The writer
// stops when ctx is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return nil
	}

	b.wg.Add(1)
	go b.writeLoop(ctx)

	if b.in != nil {
		stop, err := b.in.Listen(b.handleMessage)
		if err != nil {
			b.Stop()
			return fmt.Errorf("starting midi input: %w", err)
		}
		b.stopListen = stop
	}

	_ = b.reg.Do(func() error { //nolint:errcheck // closure never fails
		b.reg.Watch(b)
		return nil
	})

	if b.opts.SyncOnStart {
		if err := b.SyncAll(ctx); err != nil {
			return err
		}
	}
	if b.opts.RequestOnStart {
		if err := b.RequestAll(ctx); err != nil {
			return err
		}
	}

	b.logInfo("midi bridge started", "device", b.device,
		"sync_on_start", b.opts.SyncOnStart, "request_on_start", b.opts.RequestOnStart)
	return nil
}

// Stop detaches the bridge and closes both ports. Queued messages are
// discarded. It is safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.started.Load() {
			_ = b.reg.Do(func() error { //nolint:errcheck // closure never fails
				b.reg.Unwatch(b)
				return nil
			})
		}
		if b.stopListen != nil {
			b.stopListen()
		}
		close(b.done)
		b.wg.Wait()

		if err := b.out.Close(); err != nil {
			b.logError("closing midi output", err)
		}
		if b.in != nil {
			if err := b.in.Close(); err != nil {
				b.logError("closing midi input", err)
			}
		}
		b.logInfo("midi bridge stopped")
	})
}

// OnUpdate implements xgparam.Observer: the new value is sent to the
// device.
func (b *Bridge) OnUpdate(p *xgparam.Parameter) {
	b.sendParameter(p)
}

// OnReset implements xgparam.Observer. A reset parameter is re-sent so
// the device holds the same value as the registry.
func (b *Bridge) OnReset(p *xgparam.Parameter) {
	b.sendParameter(p)
}

func (b *Bridge) sendParameter(p *xgparam.Parameter) {
	msg, err := sysex.ParameterChange(b.device, p)
	if err != nil {
		b.failed.Add(1)
		b.logError("encoding parameter change", err)
		return
	}
	select {
	case b.queue <- outgoing{msg: msg}:
	default:
		b.dropped.Add(1)
		b.logWarn("midi queue full, dropping parameter change", "address", p.Key().String())
	}
}

// SyncAll sends XG System On followed by every current parameter. It
// blocks while the queue is full.
func (b *Bridge) SyncAll(ctx context.Context) error {
	var msgs []gomidi.Message
	err := b.reg.Do(func() error {
		var err error
		msgs, err = sysex.Dump(b.device, b.reg)
		return err
	})
	if err != nil {
		return fmt.Errorf("building state dump: %w", err)
	}

	if err := b.enqueue(ctx, outgoing{msg: sysex.SystemOn(b.device), pause: systemOnDelay}); err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := b.enqueue(ctx, outgoing{msg: msg}); err != nil {
			return err
		}
	}
	b.logInfo("midi state sync queued", "messages", len(msgs)+1)
	return nil
}

// RequestAll sends a Parameter Request for every current parameter. The
// replies arrive as Parameter Changes and update the registry.
func (b *Bridge) RequestAll(ctx context.Context) error {
	if b.in == nil {
		b.logWarn("midi request skipped: no input port")
		return nil
	}

	var keys []xgparam.AddressKey
	_ = b.reg.Do(func() error { //nolint:errcheck // closure never fails
		for _, p := range b.reg.CurrentParameters() {
			keys = append(keys, p.Key())
		}
		return nil
	})

	for _, k := range keys {
		if err := b.enqueue(ctx, outgoing{msg: sysex.Request(b.device, k)}); err != nil {
			return err
		}
	}
	b.logInfo("midi parameter requests queued", "count", len(keys))
	return nil
}

// Send queues an arbitrary message, such as a bulk dump.
func (b *Bridge) Send(ctx context.Context, msg gomidi.Message) error {
	return b.enqueue(ctx, outgoing{msg: msg})
}

// enqueue blocks until there is room in the queue.
func (b *Bridge) enqueue(ctx context.Context, o outgoing) error {
	if !b.started.Load() {
		return ErrNotStarted
	}
	select {
	case <-b.done:
		return ErrStopped
	default:
	}
	select {
	case b.queue <- o:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) writeLoop(ctx context.Context) {
	defer b.wg.Done()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case o := <-b.queue:
			if wait := b.opts.SendInterval - time.Since(last); wait > 0 {
				if !sleep(ctx, b.done, wait) {
					return
				}
			}
			if err := b.out.Send(o.msg); err != nil {
				b.failed.Add(1)
				b.logError("sending midi message", err)
			} else {
				b.sent.Add(1)
			}
			last = time.Now()
			if o.pause > 0 && !sleep(ctx, b.done, o.pause) {
				return
			}
		}
	}
}

// sleep waits for d and reports false if the bridge stopped meanwhile.
func sleep(ctx context.Context, done <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-done:
		return false
	}
}

// handleMessage applies a message from the device. Messages for another
// device number and non-XG traffic are ignored.
func (b *Bridge) handleMessage(msg gomidi.Message) {
	m, err := sysex.Parse(msg)
	if errors.Is(err, sysex.ErrNotXG) {
		return
	}
	b.received.Add(1)
	if err != nil {
		b.failed.Add(1)
		b.logDebug("ignoring malformed xg message", "error", err)
		return
	}
	if m.Device != b.device {
		return
	}

	var res sysex.Result
	err = b.reg.Do(func() error {
		var err error
		res, err = sysex.ApplyMessage(b.reg, m, b)
		return err
	})
	b.applied.Add(uint64(res.Applied)) //nolint:gosec // non-negative count
	if err != nil {
		b.failed.Add(1)
		b.logDebug("device message not applied", "kind", m.Kind.String(), "address", m.Address.String(), "error", err)
	}
}

// Metrics are the bridge counters since start.
type Metrics struct {
	Started  bool   `json:"started"`
	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`
	Applied  uint64 `json:"applied"`
	Dropped  uint64 `json:"dropped"`
	Errors   uint64 `json:"errors"`
	Pending  int    `json:"pending"`
}

// GetMetrics returns the current counters.
func (b *Bridge) GetMetrics() Metrics {
	return Metrics{
		Started:  b.started.Load(),
		Sent:     b.sent.Load(),
		Received: b.received.Load(),
		Applied:  b.applied.Load(),
		Dropped:  b.dropped.Load(),
		Errors:   b.failed.Load(),
		Pending:  len(b.queue),
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}
