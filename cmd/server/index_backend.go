package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillsurkov/twg-2025-1/internal/persistence/indexdb"
)

// openIndex picks the read-model backend. COLONY_INDEX_BACKEND accepts
// "sqlite" (default) or "none".
func openIndex(dataDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("COLONY_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(indexPath(dataDir))
	default:
		return nil, fmt.Errorf("unsupported COLONY_INDEX_BACKEND=%q", backend)
	}
}

func indexPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "colony.sqlite")
}
