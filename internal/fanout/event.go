package fanout

import (
	"time"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Kind classifies an Event.
type Kind string

const (
	// KindUpdate is a parameter value change.
	KindUpdate Kind = "update"

	// KindReset means a parameter's meaning changed, for example when it
	// was rebuilt for another effect type.
	KindReset Kind = "reset"

	// KindTableReset means a table switched selector key.
	KindTableReset Kind = "table_reset"
)

// Event is one registry change in a transport-neutral form.
//
// For table resets Address and Name are empty, Value holds the new
// selector key and Text its name.
type Event struct {
	Kind       Kind      `json:"kind"`
	Category   string    `json:"category"`
	Address    string    `json:"address,omitempty"`
	EffectType string    `json:"effect_type,omitempty"`
	Name       string    `json:"name,omitempty"`
	Value      uint32    `json:"value"`
	Display    float64   `json:"display"`
	Text       string    `json:"text,omitempty"`
	Time       time.Time `json:"time"`

	// Key is Address in structured form, for topic building.
	Key xgparam.AddressKey `json:"-"`
}

// parameterEvent snapshots p. It runs under the registry lock.
func parameterEvent(kind Kind, p *xgparam.Parameter, now time.Time) Event {
	ev := Event{
		Kind:     kind,
		Category: "unknown",
		Address:  p.Key().String(),
		Name:     p.Name(),
		Value:    p.Value(),
		Display:  p.DisplayValue(),
		Text:     p.Text(),
		Time:     now,
		Key:      p.Key(),
	}
	if c, _, err := xgparam.Route(p.Key()); err == nil {
		ev.Category = c.String()
	}
	if etype, ok := p.EffectType(); ok {
		ev.EffectType = xgparam.FormatEffectType(etype)
	}
	return ev
}

// tableEvent snapshots a table's selector after a key switch.
func tableEvent(t *xgparam.Table, now time.Time) Event {
	key := t.CurrentKey()
	ev := Event{
		Kind:     KindTableReset,
		Category: t.Category().String(),
		Value:    uint32(key),
		Display:  float64(key),
		Time:     now,
	}
	if name, ok := t.KeyName(key); ok {
		ev.Text = name
	}
	if t.Category().IsEffect() {
		ev.EffectType = xgparam.FormatEffectType(key)
	}
	return ev
}
