package sysex

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Result counts what Apply did with a message.
type Result struct {
	Kind     Kind
	Applied  int
	Unknown  int
	Rejected int
}

// Apply parses msg and routes its data into r with sender as the origin
// of the resulting notifications. Callers serialise access to r, usually
// inside Registry.Do.
func Apply(r *xgparam.Registry, msg midi.Message, sender xgparam.Observer) (Result, error) {
	m, err := Parse(msg)
	if err != nil {
		return Result{}, err
	}
	return ApplyMessage(r, m, sender)
}

// ApplyMessage routes a parsed message into r.
//
// Parameter changes and bulk dumps are walked parameter by parameter
// using each parameter's width. Bytes at unknown addresses are skipped
// and counted. Values a parameter rejects are counted and reported in
// the returned error, which joins one error per rejected value. System On
// and All Parameter Reset restore every default. Requests change nothing.
func ApplyMessage(r *xgparam.Registry, m *Message, sender xgparam.Observer) (Result, error) {
	res := Result{Kind: m.Kind}

	switch m.Kind {
	case KindSystemOn, KindAllReset:
		err := r.Reset(sender)
		res.Applied = len(r.CurrentParameters())
		return res, err
	case KindParameterChange, KindBulkDump:
	default:
		return res, nil
	}

	var errs []error
	for off := 0; off < len(m.Data); {
		k := m.Address.Offset(off)
		p := r.FindParameter(k)
		if p == nil {
			res.Unknown++
			off++
			continue
		}

		u, err := p.Decode(m.Data, off)
		if err != nil {
			res.Rejected++
			errs = append(errs, fmt.Errorf("%w: %s truncated: %w", ErrMalformed, p, err))
			break
		}
		if err := p.SetValue(u, sender); err != nil {
			res.Rejected++
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		} else {
			res.Applied++
		}
		off += p.Size()
	}

	if m.Kind == KindParameterChange && res.Applied == 0 && res.Rejected == 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownAddress, m.Address))
	}
	return res, errors.Join(errs...)
}
