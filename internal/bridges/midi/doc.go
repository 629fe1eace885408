// Package midi connects the parameter registry to an XG tone generator.
//
// The Bridge is a registry watcher. Every parameter change that did not
// come from the device is turned into an XG Parameter Change and queued
// for the output port; a writer goroutine drains the queue at the
// configured send interval, since XG devices lose data sent faster than
// they can process it. Messages received on the input port are applied
// to the registry with the bridge as sender, so the device never hears
// its own changes echoed back.
//
//	Registry ──OnUpdate──▶ queue ──throttled writer──▶ out port ──▶ device
//	Registry ◀──sysex.Apply (sender=bridge)◀── in port ◀────────── device
//
// Ports are opened by name fragment through the gomidi driver registered
// by the binary (rtmididrv).
package midi
