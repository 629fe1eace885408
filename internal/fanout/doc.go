// Package fanout carries registry changes to the outside world.
//
// The Hub is a registry watcher: parameter and table notifications become
// Events on a bounded queue, and Run delivers each Event to every Sink.
// Notifications arrive under the registry lock, so the Hub never blocks
// there; when the queue is full the event is dropped and counted.
//
//	Registry ──observer──▶ Hub queue ──Run──▶ MQTTSink  (retained state)
//	                                      ├─▶ InfluxSink (history)
//	                                      └─▶ WebSocket hub (api)
//
// The reverse direction is the CommandHandler: it subscribes to the MQTT
// command topics and writes parameters through Registry.Do.
package fanout
