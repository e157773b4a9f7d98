// Package store persists chat sessions, their turns, and the sqlite fact
// ledger in one SQLite file.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB is the dhammi database. The server shares one DB across requests, so
// session, turn and fact writes from concurrent chats queue on the busy
// timeout instead of failing with SQLITE_BUSY.
type DB struct {
	*sql.DB
	Path string
}

// DefaultDBPath returns ~/.dhammi/dhammi.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".dhammi", "dhammi.db"), nil
}

// Open opens or creates the history database at path and brings its schema
// up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return open(path, filePragmas)
}

// OpenMemory opens a private in-memory database. It is pinned to a single
// connection: every new connection to ":memory:" is a separate, empty
// database.
func OpenMemory() (*DB, error) {
	return open(memoryPath, memoryPragmas)
}

var (
	filePragmas = []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	// WAL does not apply to in-memory databases.
	memoryPragmas = []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
)

func open(path string, pragmas []string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, Path: path}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
