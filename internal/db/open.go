package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// IsRemote reports whether dsn names a libsql server rather than a local sqlite file.
func IsRemote(dsn string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// OpenDB opens a local sqlite file (or ":memory:") with the sqlite driver and
// anything that looks like a url with the libsql driver. The schema is applied
// in both cases.
func OpenDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}

	var (
		database *sql.DB
		err      error
	)
	if IsRemote(dsn) {
		database, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	} else {
		if dsn != ":memory:" {
			err = os.MkdirAll(filepath.Dir(dsn), 0777)
			if err != nil {
				return nil, wrapOpenDB(err)
			}
		}

		database, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, wrapOpenDB(err)
		}

		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		database.SetMaxOpenConns(1)
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, wrapOpenDB(err)
		}
	}

	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(fmt.Errorf("apply schema: %w", err))
	}

	return database, nil
}
