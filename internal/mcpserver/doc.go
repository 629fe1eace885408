// Package mcpserver exposes the parameter registry as Model Context
// Protocol tools over stdio, so an assistant can inspect and edit the
// device state.
//
// Tools:
//
//	xg_get_parameter    address, etype?      one parameter
//	xg_set_parameter    address, value|display
//	xg_list_parameters  category             current parameters
//	xg_list_keys        category             selector names and current key
//	xg_select_key       category, key        switch effect type, part or setup
//	xg_list_snapshots                        stored snapshots
//	xg_save_snapshot    name, notes?
//	xg_load_snapshot    name
//
// Every tool runs inside Registry.Do. Edits carry no sender, so the MIDI
// bridge forwards them to the device like any other edit.
//
// The stdio transport owns stdout. Logging must be configured to stderr
// when the server runs.
package mcpserver
