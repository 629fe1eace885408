// Package database provides SQLite connectivity for the snapshot store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations from an fs.FS (the embedded migrations package)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: each version has an .up.sql and a .down.sql
// file named YYYYMMDD_HHMMSS_description.
package database
