package xgparam

import "fmt"

// recorder is an Observer that logs every callback it receives.
type recorder struct {
	name   string
	events *[]string
	update func(p *Parameter)
}

func newRecorder(name string, events *[]string) *recorder {
	return &recorder{name: name, events: events}
}

func (r *recorder) OnReset(p *Parameter) {
	*r.events = append(*r.events, fmt.Sprintf("%s:reset:%s", r.name, p.Key()))
}

func (r *recorder) OnUpdate(p *Parameter) {
	*r.events = append(*r.events, fmt.Sprintf("%s:update:%s=%d", r.name, p.Key(), p.Value()))
	if r.update != nil {
		r.update(p)
	}
}

// tableRecorder counts table resets.
type tableRecorder struct {
	resets int
	last   *Table
}

func (t *tableRecorder) OnTableReset(tbl *Table) {
	t.resets++
	t.last = tbl
}

func byteItem(id uint8, name string, def uint32) *Item {
	return &Item{ID: id, Size: 1, Min: 0, Max: 127, Name: name, Default: def}
}

// testEffects is a two-type reverb table: Hall and Room name slot 3
// differently and give it different bounds.
var testEffects = EffectTable{
	{
		MSB: 0x01, LSB: 0x00, Name: "Hall 1",
		Params: []EffectParamItem{
			{ID: 0, Name: "Reverb Time", Min: 0, Max: 69, Unit: "s",
				Conv: Lookup{Values: []float64{0.3, 0.4, 0.5, 0.6}}},
			{ID: 3, Name: "Reverb Time", Min: 0, Max: 69, Unit: "s"},
		},
		Defaults: []uint32{18, 10, 8, 25},
	},
	{
		MSB: 0x02, LSB: 0x00, Name: "Room 1",
		Params: []EffectParamItem{
			{ID: 3, Name: "HPF Cutoff", Min: 0, Max: 52, Unit: "Hz"},
		},
		Defaults: []uint32{5, 10, 8, 0},
	},
}

var (
	hallType = EffectType(0x01, 0x00)
	roomType = EffectType(0x02, 0x00)
)

func dependentItem(id, index uint8) *Item {
	return &Item{ID: id, Size: 1, Max: 127, Effect: CategoryReverb, EffectIndex: index}
}
