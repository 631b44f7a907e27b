package data

import (
	"database/sql"
	"fmt"

	"expert/logger"

	_ "github.com/lib/pq"
)

type PostgresDiagnosticsRepository struct {
	db *sql.DB
}

func (r *PostgresDiagnosticsRepository) Init(connectionString string) error {
	if connectionString == "" {
		return fmt.Errorf("postgres diagnostics need a connection string")
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return err
	}

	createTableQuery := `
		CREATE TABLE IF NOT EXISTS failures (
			id         BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			context_id TEXT NOT NULL,
			job_id     TEXT NOT NULL,
			kind       TEXT NOT NULL,
			status     TEXT NOT NULL,
			code       TEXT NOT NULL,
			message    TEXT NOT NULL,
			steps      TEXT NOT NULL,
			created    TIMESTAMPTZ NOT NULL
		);`
	if _, err := db.Exec(createTableQuery); err != nil {
		db.Close()
		return err
	}

	logger.Debug.Println("diagnostics (postgres) ready")
	r.db = db
	return nil
}

func (r *PostgresDiagnosticsRepository) InsertFailure(failure Failure) (int64, error) {
	stamp(&failure)

	var id int64
	err := r.db.QueryRow("INSERT INTO failures (session_id, context_id, job_id, kind, status, code, message, steps, created) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id",
		failure.SessionId, failure.ContextId, failure.JobId, failure.Kind, failure.Status, failure.Code, failure.Message, failure.Steps, failure.Created).
		Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresDiagnosticsRepository) GetRecentFailures(limit int) ([]Failure, error) {
	rows, err := r.db.Query("SELECT id, session_id, context_id, job_id, kind, status, code, message, steps, created FROM failures ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFailures(rows)
}

func (r *PostgresDiagnosticsRepository) Close() error {
	return r.db.Close()
}
