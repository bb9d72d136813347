// Package postgres implements the repository interfaces on PostgreSQL
// through database/sql. Repositories accept a DBTX rather than *sql.DB so the
// circuit-breaker wrapper can be injected in front of the real pool.
package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB the repositories use. Both *sql.DB and the
// resilience layer's DBCircuitBreaker satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
