package sqlconfig

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct configures where snapshots are written, `file` is a local sqlite
// database and `url` is a remote libsql database (libsql://, https://, wss://).
type Struct struct {
	File string `json:"file"`
	Url  string `json:"url"`
}

func isRemote(target string) bool {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	return false
}

// OpenDB opens the configured database and applies `schema` to it.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch {
	case config.Url != "":
		if !isRemote(config.Url) {
			return nil, fmt.Errorf("unsupported database url: %s", config.Url)
		}
		db, err = sql.Open("libsql", config.Url)
		if err != nil {
			return nil, err
		}
	case config.File != "":
		db, err = openFile(config.File)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("a path was not specified")
	}

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func openFile(path string) (*sql.DB, error) {
	if path != ":memory:" {
		_, statErr := os.Stat(path)
		if os.IsNotExist(statErr) {
			f, err := os.Create(path)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
