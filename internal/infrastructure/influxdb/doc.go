// Package influxdb records XG parameter history in InfluxDB.
//
// Every value change becomes an xg_parameter point tagged with the
// parameter address, category and name; whole-category resets become
// xg_reset points. Plotted over time this shows how a patch was edited.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteParameterChange(influxdb.ParameterPoint{
//	    Address: "02/01/0C", Category: "reverb",
//	    Name: "Reverb Return", Value: 64, Display: "64",
//	})
//
// # Error Handling
//
// Writes are batched and non-blocking. Batch failures are delivered to
// the SetOnError callback; connection and health check errors are
// returned directly.
package influxdb
