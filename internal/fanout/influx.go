package fanout

import (
	"context"
	"time"

	"github.com/nerrad567/xgparam-core/internal/infrastructure/influxdb"
)

// PointWriter is the part of the InfluxDB client the sink needs.
type PointWriter interface {
	WriteParameterChange(p influxdb.ParameterPoint)
	WriteReset(category string, ts time.Time)
}

// InfluxSink records parameter history.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates a sink writing to w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Name implements Sink.
func (s *InfluxSink) Name() string { return "influxdb" }

// Deliver implements Sink. Writes are batched by the client and never
// fail here.
func (s *InfluxSink) Deliver(_ context.Context, ev Event) error {
	if ev.Kind == KindTableReset {
		s.w.WriteReset(ev.Category, ev.Time)
		return nil
	}
	s.w.WriteParameterChange(influxdb.ParameterPoint{
		Address:  ev.Address,
		Category: ev.Category,
		Name:     ev.Name,
		Value:    int(ev.Value),
		Display:  ev.Text,
		Time:     ev.Time,
	})
	return nil
}
