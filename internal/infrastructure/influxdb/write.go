package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementParameter = "xg_parameter"
	MeasurementReset     = "xg_reset"
)

// ParameterPoint is one parameter value change.
type ParameterPoint struct {
	Address  string
	Category string
	Name     string
	Value    int
	Display  string
	Time     time.Time
}

// parameterPoint builds the xg_parameter point. Address, category and
// name are tags; value and display are fields. Table keys are not tags
// because effect parameters change meaning when the effect type changes,
// and the name tag already carries that meaning.
func parameterPoint(p ParameterPoint) *write.Point {
	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementParameter,
		map[string]string{
			"address":  p.Address,
			"category": p.Category,
			"name":     p.Name,
		},
		map[string]any{
			"value":   int64(p.Value),
			"display": p.Display,
		},
		ts,
	)
}

// resetPoint builds the xg_reset point recorded when a whole category
// changes at once.
func resetPoint(category string, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementReset,
		map[string]string{"category": category},
		map[string]any{"count": int64(1)},
		ts,
	)
}

// WriteParameterChange queues a parameter change. The write is
// non-blocking; it is dropped silently when the client is not connected.
func (c *Client) WriteParameterChange(p ParameterPoint) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(parameterPoint(p))
}

// WriteReset queues a reset marker for a category.
func (c *Client) WriteReset(category string, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(resetPoint(category, ts))
}
