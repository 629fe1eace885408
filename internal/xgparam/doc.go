// Package xgparam provides the parameter registry and binary codec for
// Yamaha XG tone generator parameters.
//
// Every XG parameter is addressed by three bytes: a category "high" byte,
// a group "mid" byte and a parameter "low" byte. The package binds each
// address to a static descriptor (width, range, default, conversions) and
// a current raw value, and keeps any number of observers in step with that
// value.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────────┐
//	│                            Registry                                   │
//	│                                                                       │
//	│   flat index: AddressKey ──▶ *Parameter                               │
//	│   reverse:    *Parameter ──▶ *Table                                   │
//	│                                                                       │
//	│  ┌────────┐ ┌────────┐ ┌────────┐ ┌───────────┐ ┌─────────┐ ┌───────┐ │
//	│  │ SYSTEM │ │ REVERB │ │ CHORUS │ │ VARIATION │ │MULTIPART│ │ DRUM  │ │
//	│  └───┬────┘ └───┬────┘ └────────┘ └───────────┘ └─────────┘ └───────┘ │
//	└──────│──────────│─────────────────────────────────────────────────────┘
//	       │          │
//	       ▼          ▼
//	   Table: selector key ──▶ Group: local id ──▶ *Parameter
//	          current key ◀── key parameter (e.g. reverb type)
//
// # Key Types
//
//   - AddressKey: comparable (high, mid, low) triple used as a map key
//   - Item, EffectParamItem, EffectItem: static descriptor data
//   - Parameter: one addressed value plus its observers; an effect
//     parameter resolves its traits through the current effect type table
//   - Group: local id to Parameter for one selector key
//   - Table: selector key to Group, with a current key and key names
//   - Registry: one Table per Category plus the flat and reverse indexes
//
// # Notification
//
// SetValue validates, stores and then notifies every attached observer
// except the sender, depth-first and in attachment order. A parameter
// never re-enters its own SetValue from inside its own notification;
// such a call fails with ErrBusy.
//
// # Concurrency
//
// Parameters, tables and the registry are not safe for concurrent use.
// Goroutines other than the one that built the registry must go through
// Registry.Do, which serialises all access behind one lock.
//
// # Usage
//
//	reg := xgparam.NewRegistry()
//	p := xgparam.NewParameter(xgparam.Address(0x00, 0x00, 0x04), &masterVolume)
//	if err := reg.Add(p); err != nil {
//	    return err
//	}
//	if err := p.SetValue(100, nil); err != nil {
//	    return err
//	}
package xgparam
