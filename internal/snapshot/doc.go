// Package snapshot stores named copies of the device state in SQLite.
//
// A snapshot ("performance") holds the raw value of every current
// parameter: the static parameters plus the effect parameters of each
// effect table's current type. Effect parameters are stored with the
// effect type they belong to, so a snapshot taken under one reverb type
// never writes its slot values into another.
//
// Loading applies values in three passes: effect type selectors first,
// so effect tables switch to the saved types, then static parameters,
// then effect parameters. Rows that no longer resolve (a smaller part
// count, a pack that dropped an effect) or hold out-of-range values are
// skipped and counted rather than failing the load.
//
// Save and Load take the registry lock themselves; callers must not
// hold it. Database I/O happens outside the lock.
package snapshot
