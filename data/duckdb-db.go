package data

import (
	"database/sql"

	"expert/logger"

	_ "github.com/marcboeker/go-duckdb"
)

// DuckDB copy of the failure log, handy for ad-hoc analysis.
type DuckDbDiagnosticsRepository struct {
	db *sql.DB
}

func (r *DuckDbDiagnosticsRepository) Init(path string) error {
	if path == "" {
		var err error
		path, err = defaultPath("diagnostics.duckdb")
		if err != nil {
			return err
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return err
	}

	if _, err := db.Exec("CREATE SEQUENCE IF NOT EXISTS failures_id_seq"); err != nil {
		db.Close()
		return err
	}

	createTableQuery := `
		CREATE TABLE IF NOT EXISTS failures (
			id         BIGINT PRIMARY KEY DEFAULT NEXTVAL('failures_id_seq'),
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

	logger.Debug.Printf("diagnostics (duckdb) at %s", path)
	r.db = db
	return nil
}

func (r *DuckDbDiagnosticsRepository) InsertFailure(failure Failure) (int64, error) {
	stamp(&failure)

	var id int64
	err := r.db.QueryRow("INSERT INTO failures (session_id, context_id, job_id, kind, status, code, message, steps, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id",
		failure.SessionId, failure.ContextId, failure.JobId, failure.Kind, failure.Status, failure.Code, failure.Message, failure.Steps, failure.Created).
		Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *DuckDbDiagnosticsRepository) GetRecentFailures(limit int) ([]Failure, error) {
	rows, err := r.db.Query("SELECT id, session_id, context_id, job_id, kind, status, code, message, steps, created FROM failures ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFailures(rows)
}

func (r *DuckDbDiagnosticsRepository) Close() error {
	return r.db.Close()
}
