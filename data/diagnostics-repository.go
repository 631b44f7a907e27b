package data

import (
	"database/sql"
	"fmt"
	"time"
)

type DiagnosticsRepository interface {
	InsertFailure(failure Failure) (int64, error)
	GetRecentFailures(limit int) ([]Failure, error)
	Close() error
}

// Open returns the repository for backend ("sqlite", "postgres", "duckdb").
// An empty dsn selects the default file under ~/.expert for the file backends.
func Open(backend string, dsn string) (DiagnosticsRepository, error) {
	var repository interface {
		DiagnosticsRepository
		Init(dsn string) error
	}

	switch backend {
	case "", "sqlite":
		repository = &SqliteDiagnosticsRepository{}
	case "postgres":
		repository = &PostgresDiagnosticsRepository{}
	case "duckdb":
		repository = &DuckDbDiagnosticsRepository{}
	default:
		return nil, fmt.Errorf("unknown diagnostics backend %q", backend)
	}

	if err := repository.Init(dsn); err != nil {
		return nil, fmt.Errorf("opening %s diagnostics: %w", backend, err)
	}
	return repository, nil
}

func scanFailures(rows *sql.Rows) ([]Failure, error) {
	var failures []Failure
	for rows.Next() {
		var f Failure
		err := rows.Scan(&f.Id, &f.SessionId, &f.ContextId, &f.JobId, &f.Kind, &f.Status, &f.Code, &f.Message, &f.Steps, &f.Created)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func stamp(failure *Failure) {
	if failure.Created.IsZero() {
		failure.Created = time.Now().UTC()
	}
}
