package midi

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/sysex"
	"github.com/nerrad567/xgparam-core/internal/xgdata"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// fakePort records every message sent to it.
type fakePort struct {
	mu     sync.Mutex
	msgs   []gomidi.Message
	closed bool
	err    error
}

func (p *fakePort) Send(msg gomidi.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePort) sent() []gomidi.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gomidi.Message(nil), p.msgs...)
}

// fakeListener hands the callback to the test.
type fakeListener struct {
	mu      sync.Mutex
	fn      func(gomidi.Message)
	stopped bool
	closed  bool
}

func (l *fakeListener) Listen(fn func(gomidi.Message)) (func(), error) {
	l.mu.Lock()
	l.fn = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()
	}, nil
}

func (l *fakeListener) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *fakeListener) deliver(msg gomidi.Message) {
	l.mu.Lock()
	fn := l.fn
	l.mu.Unlock()
	fn(msg)
}

func newRegistry(t *testing.T) *xgparam.Registry {
	t.Helper()
	reg := xgparam.NewRegistry()
	if err := xgdata.Populate(reg, xgdata.NewCatalog(), xgdata.Options{Parts: 2, DrumSetups: 1}); err != nil {
		t.Fatalf("Populate() error: %v", err)
	}
	return reg
}

func startBridge(t *testing.T, opts Options) *Bridge {
	t.Helper()
	b, err := NewBridge(opts)
	if err != nil {
		t.Fatalf("NewBridge() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() {
		b.Stop()
		cancel()
	})
	return b
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewBridgeValidation(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		name string
		opts Options
	}{
		{"no registry", Options{Out: &fakePort{}}},
		{"no output", Options{Registry: reg}},
		{"device out of range", Options{Registry: reg, Out: &fakePort{}, Device: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBridge(tt.opts); err == nil {
				t.Error("NewBridge() error = nil")
			}
		})
	}
}

func TestBridgeSendsParameterChanges(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	b := startBridge(t, Options{Registry: reg, Out: out, Device: 2})

	err := reg.Do(func() error {
		return reg.FindParameter(xgparam.Address(0x00, 0x00, 0x04)).SetValue(0x50, nil)
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(out.sent()) == 1 })
	want := []byte{0xF0, 0x43, 0x12, 0x4C, 0x00, 0x00, 0x04, 0x50, 0xF7}
	if got := out.sent()[0].Bytes(); !bytes.Equal(got, want) {
		t.Errorf("sent % X, want % X", got, want)
	}
	if m := b.GetMetrics(); m.Sent != 1 || m.Errors != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestBridgeAppliesDeviceMessages(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	in := &fakeListener{}
	b := startBridge(t, Options{Registry: reg, Out: out, In: in})

	var seen []string
	watcher := &xgparam.ObserverFuncs{Update: func(p *xgparam.Parameter) { seen = append(seen, p.Key().String()) }}
	_ = reg.Do(func() error { reg.Watch(watcher); return nil }) //nolint:errcheck // closure never fails

	in.deliver(gomidi.Message{0xF0, 0x43, 0x10, 0x4C, 0x08, 0x01, 0x0B, 0x40, 0xF7})
	// Another device number, a note and a corrupt bulk dump.
	in.deliver(gomidi.Message{0xF0, 0x43, 0x13, 0x4C, 0x08, 0x01, 0x0B, 0x10, 0xF7})
	in.deliver(gomidi.NoteOn(0, 60, 100))
	in.deliver(gomidi.Message{0xF0, 0x43, 0x00, 0x4C, 0x00, 0x01, 0x00, 0x00, 0x04, 0x7F, 0x7B, 0xF7})

	var got uint32
	_ = reg.Do(func() error { //nolint:errcheck // closure never fails
		got = reg.FindParameter(xgparam.Address(0x08, 0x01, 0x0B)).Value()
		return nil
	})
	if got != 0x40 {
		t.Errorf("part 2 volume = %#x, want 0x40", got)
	}
	if len(seen) != 1 || seen[0] != "08/01/0B" {
		t.Errorf("other observers saw %v", seen)
	}

	// The change came from the device and must not be echoed back.
	time.Sleep(20 * time.Millisecond)
	if n := len(out.sent()); n != 0 {
		t.Errorf("echoed %d messages to the device", n)
	}
	m := b.GetMetrics()
	if m.Received != 3 || m.Applied != 1 || m.Errors != 1 {
		t.Errorf("metrics = %+v, want received 3, applied 1, errors 1", m)
	}
}

func TestBridgeSyncOnStart(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	startBridge(t, Options{Registry: reg, Out: out, SyncOnStart: true})

	var want int
	_ = reg.Do(func() error { want = len(reg.CurrentParameters()) + 1; return nil }) //nolint:errcheck // closure never fails

	waitFor(t, func() bool { return len(out.sent()) == want })
	first := out.sent()[0]
	if !bytes.Equal(first.Bytes(), sysex.SystemOn(0).Bytes()) {
		t.Errorf("first message = % X, want XG System On", first.Bytes())
	}
}

func TestBridgeRequestAll(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	b := startBridge(t, Options{Registry: reg, Out: out, In: &fakeListener{}})

	if err := b.RequestAll(context.Background()); err != nil {
		t.Fatalf("RequestAll() error: %v", err)
	}
	var want int
	_ = reg.Do(func() error { want = len(reg.CurrentParameters()); return nil }) //nolint:errcheck // closure never fails

	waitFor(t, func() bool { return len(out.sent()) == want })
	for _, msg := range out.sent() {
		m, err := sysex.Parse(msg)
		if err != nil || m.Kind != sysex.KindParameterRequest {
			t.Fatalf("sent % X, want a parameter request", msg.Bytes())
		}
	}
}

func TestBridgeThrottlesSends(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	b := startBridge(t, Options{Registry: reg, Out: out, SendInterval: 20 * time.Millisecond})

	start := time.Now()
	for i := range 3 {
		if err := b.Send(context.Background(), sysex.Request(0, xgparam.Address(0, 0, uint8(i)))); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return len(out.sent()) == 3 })
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three sends took %v, want at least 40ms", elapsed)
	}
}

func TestBridgeDropsWhenQueueFull(t *testing.T) {
	reg := newRegistry(t)
	b, err := NewBridge(Options{Registry: reg, Out: &fakePort{}, QueueSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	volume := reg.FindParameter(xgparam.Address(0x00, 0x00, 0x04))

	// Not started: nothing drains the queue.
	b.OnUpdate(volume)
	b.OnUpdate(volume)
	b.OnUpdate(volume)
	if m := b.GetMetrics(); m.Dropped != 2 || m.Pending != 1 {
		t.Errorf("metrics = %+v, want dropped 2, pending 1", m)
	}
	if err := b.Send(context.Background(), sysex.SystemOn(0)); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Send() before Start error = %v, want ErrNotStarted", err)
	}
}

func TestBridgeStop(t *testing.T) {
	reg := newRegistry(t)
	out := &fakePort{}
	in := &fakeListener{}
	b, err := NewBridge(Options{Registry: reg, Out: out, In: in})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.Stop()
	b.Stop()

	if !out.closed || !in.closed || !in.stopped {
		t.Errorf("after Stop: out closed %v, in closed %v, listener stopped %v", out.closed, in.closed, in.stopped)
	}
	if err := b.Send(context.Background(), sysex.SystemOn(0)); !errors.Is(err, ErrStopped) {
		t.Errorf("Send() after Stop error = %v, want ErrStopped", err)
	}

	// Detached: registry changes no longer reach the queue.
	_ = reg.Do(func() error { //nolint:errcheck // test only
		return reg.FindParameter(xgparam.Address(0x00, 0x00, 0x04)).SetValue(1, nil)
	})
	if m := b.GetMetrics(); m.Pending != 0 {
		t.Errorf("pending after Stop = %d", m.Pending)
	}
}

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through:Midi Through Port-0 14:0", "MU1000:MU1000 MIDI 1 20:0"}
	tests := []struct {
		name     string
		fragment string
		want     int
		wantErr  bool
	}{
		{"exact", "MU1000:MU1000 MIDI 1 20:0", 1, false},
		{"case insensitive fragment", "mu1000", 1, false},
		{"first match wins", "midi", 0, false},
		{"missing", "Motif", -1, true},
		{"empty", "", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchPort(names, tt.fragment)
			if (err != nil) != tt.wantErr {
				t.Fatalf("matchPort() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrPortNotFound) {
				t.Errorf("error = %v, want ErrPortNotFound", err)
			}
			if got != tt.want {
				t.Errorf("matchPort() = %d, want %d", got, tt.want)
			}
		})
	}
}
