// Package sqlite provides a SQLite implementation of the daemon's
// session, channel and event store.
//
// # Calling Conventions
//
// The store does no transaction management of its own. Each method
// runs against s.conn, which is either the *sql.DB (autocommit) or a
// *sql.Tx handed out by RunInTransaction. Callers that need several
// changes to land together wrap them:
//
//	err := st.RunInTransaction(ctx, func(tx interpreter.Store) error {
//	    ch, err := tx.CreateChannel(ctx, key)
//	    if err != nil {
//	        return err // rolls back
//	    }
//	    return tx.SaveEvent(ctx, ch.ID, rec) // commits if nil
//	})
//
// Outside a transaction multi-statement methods such as SaveEvent are
// not atomic: the event row can land without its exclusions.
//
// # Concurrency
//
// The manager serialises writers with an RWMutex, so the default
// DEFERRED transaction type is enough. The database runs in WAL mode
// for crash recovery.
//
// # Prepared Statements
//
// Every query is prepared once when the store opens. RunInTransaction
// binds the prepared statements to the transaction with
// tx.StmtContext; the transaction-bound handles die with the
// transaction while the originals stay valid.
//
// # Descriptors
//
// Events and contexts are stored in their frozen wire layout so that
// reserved bytes survive a round trip through the database. The
// columns next to the blob (type, name, enabled, filter) are the ones
// queries match on, and they win over the blob when the two disagree.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frobware/go-tracectl/interpreter"
)

// msec formats a duration as milliseconds with 3 decimal places.
func msec(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Microseconds())/1000)
}

func withQuery(path string, params []string) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + strings.Join(params, "&")
}

//go:embed schema.sql
var schemaSQL string

// dbConn abstracts *sql.DB and *sql.Tx for query execution.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteStore implements interpreter.Store using SQLite.
type sqliteStore struct {
	db     *sql.DB // original connection, used for BeginTx
	conn   dbConn  // active connection (db or tx)
	logger *slog.Logger
	stmts  *statements
}

var _ interpreter.Store = (*sqliteStore)(nil)

// New opens (creating if needed) the store at dbPath.
func New(ctx context.Context, dbPath string, logger *slog.Logger) (interpreter.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driverName, dsn(dbPath, [][2]string{{"journal_mode", "WAL"}, {"foreign_keys", "1"}}))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := open(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("opened database", "path", dbPath)
	return s, nil
}

// NewInMemory creates an in-memory store for tests and ephemeral
// daemons.
func NewInMemory(ctx context.Context, logger *slog.Logger) (interpreter.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", ":memory:")

	db, err := sql.Open(driverName, dsn(":memory:", [][2]string{{"foreign_keys", "1"}}))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s, err := open(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("opened in-memory database")
	return s, nil
}

func open(ctx context.Context, db *sql.DB, logger *slog.Logger) (*sqliteStore, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	stmts, err := prepareStatements(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return &sqliteStore{db: db, conn: db, logger: logger, stmts: stmts}, nil
}

// Close closes all prepared statements and the database connection.
func (s *sqliteStore) Close() error {
	s.stmts.close()
	return s.db.Close()
}

// RunInTransaction executes fn within a database transaction. The
// transaction commits if fn returns nil and rolls back otherwise.
func (s *sqliteStore) RunInTransaction(ctx context.Context, fn func(interpreter.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	txStore := &sqliteStore{
		db:     s.db,
		conn:   tx,
		logger: s.logger,
		stmts:  s.stmts.bind(ctx, tx),
	}

	if err := fn(txStore); err != nil {
		s.logger.Debug("sql", "stmt", "ROLLBACK", "duration_ms", msec(time.Since(start)), "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Debug("sql", "stmt", "COMMIT", "duration_ms", msec(time.Since(start)))
	return nil
}

// logStmt records one statement execution at debug level.
func (s *sqliteStore) logStmt(name string, args []any, start time.Time, rows int64, err error) {
	if err != nil {
		s.logger.Debug("sql", "stmt", name, "args", args, "duration_ms", msec(time.Since(start)), "error", err)
		return
	}
	s.logger.Debug("sql", "stmt", name, "args", args, "duration_ms", msec(time.Since(start)), "rows", rows)
}
