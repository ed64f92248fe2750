// Package database provides SQLite connectivity for Holocron's optional
// persistent human store.
//
// This package manages:
//   - Opening the database file (or an in-memory database) with WAL mode
//   - Applying embedded schema migrations in version order
//   - Health checks and lifecycle management
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Only up migrations are applied automatically.
package database
