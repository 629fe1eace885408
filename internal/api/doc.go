// Package api implements the HTTP REST API and WebSocket server of the XG
// parameter service.
//
// This package provides:
//   - REST endpoints to read and edit parameters and to switch table keys
//   - snapshot storage endpoints
//   - .syx export and import of the current state
//   - a WebSocket hub that streams parameter events
//
// # Architecture
//
// Every handler reaches the parameter registry through Registry.Do, so
// HTTP edits are serialised with MIDI input, MQTT commands and MCP tools.
// Edits made here carry no sender: every observer sees them, the MIDI
// bridge included, which forwards them to the device.
//
// Events reach WebSocket clients through the fan-out: the Hub is one of
// its sinks. Clients choose categories by subscribing:
//
//	{"type":"subscribe","categories":["reverb"]}
//
// The reply is followed by a state message with the current parameters of
// those categories. Events timestamped at or before it are already
// included.
//
// Errors use one envelope:
//
//	{"error":{"code":"out_of_range","message":"..."}}
//
// There is no authentication. The service is meant for a local network or
// a loopback listener.
package api
