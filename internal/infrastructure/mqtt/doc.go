// Package mqtt connects xgparamd to an MQTT broker.
//
// The broker is where the parameter registry meets home automation and
// dashboards: every parameter change is published as retained JSON
// under a state topic, and other systems write parameters by publishing
// to a command topic.
//
//	xgparamd ↔ MQTT broker ↔ dashboards, automation, other editors
//
// The package manages:
//   - Connection with auto-reconnect and subscription restoration
//   - Publishing with QoS and payload limits
//   - Subscriptions with wildcard support
//   - A retained Last Will on {prefix}/system/status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishRetained(topics.State("system", "000004"), payload)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) when the broker is not on localhost
//   - Anyone who may publish to {prefix}/command/+ can change the device
package mqtt
