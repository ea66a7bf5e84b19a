package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// CreateSession inserts a session. A duplicate name yields
// store.ErrAlreadyExists.
func (s *sqliteStore) CreateSession(ctx context.Context, sess tracectl.Session) error {
	args := []any{sess.Name, sess.ID, sess.CreatedAt.UTC().Format(time.RFC3339Nano)}
	start := time.Now()
	_, err := s.stmts.createSession.ExecContext(ctx, args...)
	s.logStmt("CreateSession", args, start, 1, err)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session %q: %w", sess.Name, store.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// GetSession returns the named session or store.ErrNotFound.
func (s *sqliteStore) GetSession(ctx context.Context, name string) (tracectl.Session, error) {
	start := time.Now()
	sess, err := scanSession(s.stmts.getSession.QueryRowContext(ctx, name))
	if errors.Is(err, sql.ErrNoRows) {
		s.logStmt("GetSession", []any{name}, start, 0, nil)
		return tracectl.Session{}, fmt.Errorf("session %q: %w", name, store.ErrNotFound)
	}
	s.logStmt("GetSession", []any{name}, start, 1, err)
	return sess, err
}

// DeleteSession removes a session; foreign keys cascade to its
// channels, events and contexts.
func (s *sqliteStore) DeleteSession(ctx context.Context, name string) error {
	start := time.Now()
	res, err := s.stmts.deleteSession.ExecContext(ctx, name)
	if err != nil {
		s.logStmt("DeleteSession", []any{name}, start, 0, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	s.logStmt("DeleteSession", []any{name}, start, n, nil)
	if n == 0 {
		return fmt.Errorf("session %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// ListSessions returns every session, oldest first.
func (s *sqliteStore) ListSessions(ctx context.Context) ([]tracectl.Session, error) {
	start := time.Now()
	rows, err := s.stmts.listSessions.QueryContext(ctx)
	if err != nil {
		s.logStmt("ListSessions", nil, start, 0, err)
		return nil, err
	}
	defer rows.Close()

	var result []tracectl.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.logStmt("ListSessions", nil, start, 0, err)
			return nil, err
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		s.logStmt("ListSessions", nil, start, 0, err)
		return nil, err
	}
	s.logStmt("ListSessions", nil, start, int64(len(result)), nil)
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (tracectl.Session, error) {
	var sess tracectl.Session
	var created string
	if err := row.Scan(&sess.Name, &sess.ID, &created); err != nil {
		return tracectl.Session{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return tracectl.Session{}, fmt.Errorf("session %q: bad created_at %q: %w", sess.Name, created, err)
	}
	sess.CreatedAt = t
	return sess, nil
}

// isUniqueViolation matches the constraint error text both drivers
// produce.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
