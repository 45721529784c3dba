// Package db is the account store of the game server: users, bans, user IPs
// and login bookkeeping on MySQL (production) or SQLite (local and tests).
//
// Every statement checks one connection out of the pool for the whole
// execute-and-fetch cycle and returns it afterwards; there is no
// process-wide lock. All values travel as bound parameters.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/redaction"
	"github.com/go-ports/spaccount/internal/resultset"
)

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate key")

// QueryError carries the statement that failed. It wraps both driver
// failures and result-set usage errors.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return "An error occurred when processing a query. The query string was: " + e.Query
	}
	return fmt.Sprintf("An error occurred when processing a query: %v The query string was: %s", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error { return e.Err }

// newQueryError wraps err with query unless it already is a *QueryError.
func newQueryError(query string, err error) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	if isDuplicate(err) {
		err = fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return &QueryError{Query: compact(query), Err: err}
}

// compact collapses the whitespace of a multi-line statement.
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// redactedError keeps the chain of err but reports msg, which has the
// credentials masked.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// DB wraps a *sql.DB with the dialect of its driver.
type DB struct {
	db      *sql.DB
	dialect *dialect
}

// DSN builds the driver data source name for cfg.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Schema
		mc.Timeout = 10 * time.Second
		return mc.FormatDSN(), nil
	case config.DriverSQLite:
		return cfg.Path + "?_foreign_keys=on&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// Open connects to the database described by cfg. A connection failure is
// returned with the driver-reported message.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("db.Open: unsupported driver %q", cfg.Driver)
	}
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}

	sqldb, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		err = &redactedError{msg: redaction.Redact(err.Error(), cfg.Password), err: err}
		slog.Warn("unable to connect to database server",
			"driver", cfg.Driver, "dsn", redaction.DSN(dsn), "err", err)
		return nil, fmt.Errorf("db.Open: unable to connect to %s server: %w", cfg.Driver, err)
	}
	return &DB{db: sqldb, dialect: d}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Driver returns the name of the driver in use.
func (d *DB) Driver() string { return d.dialect.name }

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// exec runs a statement that produces no rows. The returned ResultSet is in
// the "no result" state and carries the generated id.
func (d *DB) exec(ctx context.Context, query string, args ...any) (*resultset.ResultSet, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	defer conn.Close()

	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newQueryError(query, err)
	}
	slog.Debug("exec", "query", compact(query), "elapsed", time.Since(start))
	return resultset.New(nil, id), nil
}

// query runs a statement that produces rows and stores its result before
// the connection goes back to the pool.
func (d *DB) query(ctx context.Context, query string, args ...any) (*resultset.ResultSet, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	defer conn.Close()

	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	h, err := resultset.StoreResult(rows)
	if err != nil {
		return nil, newQueryError(query, err)
	}
	slog.Debug("query", "query", compact(query), "rows", h.NumRows(), "elapsed", time.Since(start))
	return resultset.New(h, 0), nil
}
