// Package store provides the backends persisting gfsync records.
//
// Records are opaque JSON values addressed by slash separated keys such as
// "settings" or "last-txn/amundi". Two backends are available: a directory
// holding one JSON file per key, and a SQLite database.
package store

import (
	"fmt"
	"path"
	"strings"

	"github.com/etnz/gfsync"
)

// Drivers accepted by Open.
const (
	DriverDir    = "dir"
	DriverSQLite = "sqlite"
)

// Open opens the store at location using driver.
//
// For DriverDir location is a folder, created if needed. For DriverSQLite it
// is the database file.
func Open(driver, location string) (gfsync.Store, error) {
	switch driver {
	case DriverDir, "":
		d, err := NewDir(location)
		if err != nil {
			return nil, err
		}
		return d, nil
	case DriverSQLite:
		s, err := OpenSQLite(location)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q, want %q or %q", driver, DriverDir, DriverSQLite)
	}
}

// checkKey rejects keys that would escape the store.
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
