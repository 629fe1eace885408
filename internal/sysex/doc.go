// Package sysex builds and parses Yamaha XG system exclusive messages.
//
// Message layouts (n is the device number, 0-15):
//
//	Parameter Change   F0 43 1n 4C hh mm ll dd.. F7
//	Parameter Request  F0 43 3n 4C hh mm ll F7
//	Bulk Dump          F0 43 0n 4C bh bl hh mm ll dd.. cs F7
//	Bulk Request       F0 43 2n 4C hh mm ll F7
//
// XG System On and All Parameter Reset are parameter changes to the
// system addresses 00 00 7E and 00 00 7F.
//
// The bulk dump checksum makes the low seven bits of the sum of the
// count, address, data and checksum bytes zero.
//
// Messages are gomidi midi.Message values so they can be handed to any
// gomidi output port unchanged. Apply routes a parsed message into an
// xgparam.Registry through each parameter's own codec:
//
//	┌──────────┐  Parse   ┌─────────┐  Decode+SetValue  ┌──────────┐
//	│ F0 .. F7 │ ───────► │ Message │ ────────────────► │ Registry │
//	└──────────┘          └─────────┘                   └──────────┘
//	     ▲                                                   │
//	     └──────────── ParameterChange / Dump ◄──────────────┘
package sysex
