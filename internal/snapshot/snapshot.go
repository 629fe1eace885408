package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// maxNameLength bounds snapshot names.
const maxNameLength = 64

// Snapshot describes a stored snapshot.
type Snapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Device    string    `json:"device"`
	Notes     string    `json:"notes"`
	Values    int       `json:"values"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Value is one stored parameter value. EffectType is meaningful only for
// effect parameters and is 0 otherwise.
type Value struct {
	Address    xgparam.AddressKey
	EffectType uint16
	Value      uint32
}

// LoadResult counts what a load did.
type LoadResult struct {
	// Applied is the number of values written to the registry.
	Applied int `json:"applied"`

	// Unresolved counts rows with no matching parameter, including
	// effect rows whose type is no longer current.
	Unresolved int `json:"unresolved"`

	// Rejected counts rows the parameter refused, usually out of range.
	Rejected int `json:"rejected"`
}

// Repository persists snapshots.
type Repository interface {
	Save(ctx context.Context, name string, r *xgparam.Registry) (*Snapshot, error)
	Load(ctx context.Context, name string, r *xgparam.Registry) (LoadResult, error)
	Get(ctx context.Context, name string) (*Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Annotate(ctx context.Context, name, notes string) error
	Delete(ctx context.Context, name string) error
}

// ValidateName checks a snapshot name. Names appear in URL paths and MCP
// arguments, so slashes and control characters are refused.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: must be 1-%d bytes", ErrInvalidName, maxNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: leading or trailing space", ErrInvalidName)
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c < 0x20 || c == 0x7F {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, c)
		}
	}
	return nil
}

// Capture returns the value of every current parameter. The caller must
// hold the registry lock.
func Capture(r *xgparam.Registry) []Value {
	params := r.CurrentParameters()
	out := make([]Value, 0, len(params))
	for _, p := range params {
		etype, _ := p.EffectType()
		out = append(out, Value{Address: p.Key(), EffectType: etype, Value: p.Value()})
	}
	return out
}

// Apply writes values into the registry: effect type selectors first,
// then static parameters, then effect parameters whose stored type
// matches the table's type after the first pass. Observers are notified
// for every change; sender, if set, is skipped. The caller must hold the
// registry lock.
func Apply(r *xgparam.Registry, values []Value, sender xgparam.Observer) LoadResult {
	var res LoadResult

	selectors := make(map[xgparam.AddressKey]bool)
	for _, t := range r.Tables() {
		if kp := t.KeyParameter(); kp != nil {
			selectors[kp.Key()] = true
		}
	}

	set := func(p *xgparam.Parameter, u uint32) {
		if err := p.SetValue(u, sender); err != nil {
			res.Rejected++
			return
		}
		res.Applied++
	}

	var rest []Value
	for _, v := range values {
		if !selectors[v.Address] {
			rest = append(rest, v)
			continue
		}
		if p := r.FindParameter(v.Address); p != nil {
			set(p, v.Value)
		} else {
			res.Unresolved++
		}
	}

	// Selector changes discard built effect parameters, so resolve the
	// remaining rows only now.
	type pending struct {
		p *xgparam.Parameter
		u uint32
	}
	var static, effect []pending
	for _, v := range rest {
		p := r.FindParameter(v.Address)
		if p == nil {
			res.Unresolved++
			continue
		}
		if etype, ok := p.EffectType(); ok {
			if etype != v.EffectType {
				res.Unresolved++
				continue
			}
			effect = append(effect, pending{p, v.Value})
			continue
		}
		static = append(static, pending{p, v.Value})
	}

	for _, w := range static {
		set(w.p, w.u)
	}
	for _, w := range effect {
		set(w.p, w.u)
	}
	return res
}
