// Package database provides SQLite connectivity for HAP modules that keep
// local records, currently the lifecycle journal.
//
// This package manages:
//   - Database connection with optional WAL mode
//   - Schema migrations read from any fs.FS (normally the embedded
//     migrations package)
//   - Connection pooling and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "hap.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named <date>_<time>_<description>.up.sql with an
// optional matching .down.sql, and are applied in version order.
package database
