package midi

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// sysExBufferSize holds the largest XG bulk dump with room to spare.
const sysExBufferSize = 4096

// Port is an output the bridge writes to.
type Port interface {
	Send(msg gomidi.Message) error
	Close() error
}

// Listener is an input the bridge reads from. Listen delivers messages,
// system exclusive included, until stop is called.
type Listener interface {
	Listen(fn func(msg gomidi.Message)) (stop func(), err error)
	Close() error
}

// OutPort is a driver output port.
type OutPort struct {
	out drivers.Out
}

// OpenPort opens the first output port whose name contains fragment,
// case-insensitively.
func OpenPort(fragment string) (*OutPort, error) {
	out, err := findOut(gomidi.GetOutPorts(), fragment)
	if err != nil {
		return nil, err
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPortOpen, out, err)
	}
	return &OutPort{out: out}, nil
}

// Send writes msg to the port, reopening it if the driver closed it.
func (p *OutPort) Send(msg gomidi.Message) error {
	if !p.out.IsOpen() {
		if err := p.out.Open(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrPortOpen, p.out, err)
		}
	}
	return p.out.Send(msg.Bytes())
}

// Close closes the port.
func (p *OutPort) Close() error { return p.out.Close() }

// String returns the driver's port name.
func (p *OutPort) String() string { return p.out.String() }

// InPort is a driver input port.
type InPort struct {
	in drivers.In
}

// OpenInput finds the first input port whose name contains fragment. The
// port is opened by Listen.
func OpenInput(fragment string) (*InPort, error) {
	in, err := findIn(gomidi.GetInPorts(), fragment)
	if err != nil {
		return nil, err
	}
	return &InPort{in: in}, nil
}

// Listen implements Listener.
func (p *InPort) Listen(fn func(msg gomidi.Message)) (func(), error) {
	stop, err := gomidi.ListenTo(p.in, func(msg gomidi.Message, _ int32) {
		fn(msg)
	}, gomidi.UseSysEx(), gomidi.SysExBufferSize(sysExBufferSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPortOpen, p.in, err)
	}
	return stop, nil
}

// Close closes the port.
func (p *InPort) Close() error { return p.in.Close() }

// String returns the driver's port name.
func (p *InPort) String() string { return p.in.String() }

func findOut(outs []drivers.Out, fragment string) (drivers.Out, error) {
	i, err := matchPort(portNames(outs), fragment)
	if err != nil {
		return nil, err
	}
	return outs[i], nil
}

func findIn(ins []drivers.In, fragment string) (drivers.In, error) {
	i, err := matchPort(portNames(ins), fragment)
	if err != nil {
		return nil, err
	}
	return ins[i], nil
}

func portNames[T fmt.Stringer](ports []T) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// matchPort returns the index of the first name containing fragment.
func matchPort(names []string, fragment string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(fragment))
	if want == "" {
		return -1, fmt.Errorf("%w: empty port name", ErrPortNotFound)
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: no port contains %q (have %s)", ErrPortNotFound, fragment, strings.Join(names, ", "))
}

// PortNames lists the available output and input port names.
func PortNames() (outs, ins []string) {
	return portNames(gomidi.GetOutPorts()), portNames(gomidi.GetInPorts())
}
