// Package settings provides the SQLite-backed key/value store the bridge
// uses for persistent state, most importantly the device installation
// identity that must survive restarts.
//
// This package manages:
//   - Opening the SQLite database with WAL mode and busy timeout
//   - A single settings table (key TEXT PRIMARY KEY, value BLOB)
//   - Get/Put/Delete with a 15-character key length limit
//
// Security Considerations:
//   - The database file holds private key material; it is created with
//     0600 permissions and its directory with 0750
//
// Usage:
//
//	store, err := settings.Open(settings.Config{Path: "./data/lamarzocco.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
package settings
