// Package database provides SQLite connectivity for Acre Intrusion Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Schema migrations from an fs.FS (see the migrations package)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file holds PIN hashes and is chmod 0600
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
