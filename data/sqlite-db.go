package data

import (
	"database/sql"

	"expert/logger"

	_ "github.com/mattn/go-sqlite3"
)

type SqliteDiagnosticsRepository struct {
	db *sql.DB
}

func (r *SqliteDiagnosticsRepository) Init(path string) error {
	if path == "" {
		var err error
		path, err = defaultPath("diagnostics.db")
		if err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	createTableQuery := `
		CREATE TABLE IF NOT EXISTS failures (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			context_id TEXT NOT NULL,
			job_id     TEXT NOT NULL,
			kind       TEXT NOT NULL,
			status     TEXT NOT NULL,
			code       TEXT NOT NULL,
			message    TEXT NOT NULL,
			steps      TEXT NOT NULL,
			created    TIMESTAMP NOT NULL
		);`
	if _, err := db.Exec(createTableQuery); err != nil {
		db.Close()
		return err
	}

	logger.Debug.Printf("diagnostics (sqlite) at %s", path)
	r.db = db
	return nil
}

func (r *SqliteDiagnosticsRepository) InsertFailure(failure Failure) (int64, error) {
	stamp(&failure)

	result, err := r.db.Exec("INSERT INTO failures (session_id, context_id, job_id, kind, status, code, message, steps, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		failure.SessionId, failure.ContextId, failure.JobId, failure.Kind, failure.Status, failure.Code, failure.Message, failure.Steps, failure.Created)
	if err != nil {
		logger.Debug.Println("insert of failure failed", err)
		return 0, err
	}
	return result.LastInsertId()
}

func (r *SqliteDiagnosticsRepository) GetRecentFailures(limit int) ([]Failure, error) {
	rows, err := r.db.Query("SELECT id, session_id, context_id, job_id, kind, status, code, message, steps, created FROM failures ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFailures(rows)
}

func (r *SqliteDiagnosticsRepository) Close() error {
	return r.db.Close()
}
