package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// statements holds every prepared statement the store uses.
type statements struct {
	createSession *sql.Stmt
	getSession    *sql.Stmt
	deleteSession *sql.Stmt
	listSessions  *sql.Stmt

	createChannel *sql.Stmt
	getChannel    *sql.Stmt
	listChannels  *sql.Stmt

	saveEvent        *sql.Stmt
	deleteExclusions *sql.Stmt
	insertExclusion  *sql.Stmt
	listEvents       *sql.Stmt
	listExclusions   *sql.Stmt
	setEnabled       *sql.Stmt
	countEvents      *sql.Stmt

	addContext   *sql.Stmt
	listContexts *sql.Stmt
}

const (
	sqlCreateSession = `INSERT INTO sessions (name, id, created_at) VALUES (?, ?, ?)`
	sqlGetSession    = `SELECT name, id, created_at FROM sessions WHERE name = ?`
	sqlDeleteSession = `DELETE FROM sessions WHERE name = ?`
	sqlListSessions  = `SELECT name, id, created_at FROM sessions ORDER BY created_at, name`

	sqlCreateChannel = `
		INSERT INTO channels (session, domain, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session, domain, name) DO NOTHING`
	sqlGetChannel = `
		SELECT id, created_at FROM channels
		WHERE session = ? AND domain = ? AND name = ?`
	sqlListChannels = `
		SELECT id, name, created_at FROM channels
		WHERE session = ? AND domain = ?
		ORDER BY id`

	sqlSaveEvent = `
		INSERT INTO events (channel_id, type, name, enabled, filter, descriptor)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, type, name) DO UPDATE SET
		  enabled = excluded.enabled,
		  filter = excluded.filter,
		  descriptor = excluded.descriptor
		RETURNING id`
	sqlDeleteExclusions = `DELETE FROM event_exclusions WHERE event_id = ?`
	sqlInsertExclusion  = `INSERT INTO event_exclusions (event_id, position, pattern) VALUES (?, ?, ?)`
	sqlListEvents       = `
		SELECT id, enabled, filter, descriptor FROM events
		WHERE channel_id = ?
		ORDER BY id`
	sqlListExclusions = `
		SELECT pattern FROM event_exclusions
		WHERE event_id = ?
		ORDER BY position`
	sqlSetEnabled = `
		UPDATE events SET enabled = ?
		WHERE channel_id = ? AND (? = '' OR name = ?) AND enabled <> ?`
	sqlCountEvents = `SELECT COUNT(*) FROM events WHERE channel_id = ?`

	sqlAddContext = `
		INSERT INTO contexts (channel_id, type, perf_name, descriptor)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (channel_id, type, perf_name) DO NOTHING`
	sqlListContexts = `SELECT descriptor FROM contexts WHERE channel_id = ? ORDER BY id`
)

// all returns the address of every statement field paired with its
// SQL, in declaration order.
func (st *statements) all() []struct {
	stmt **sql.Stmt
	name string
	sql  string
} {
	return []struct {
		stmt **sql.Stmt
		name string
		sql  string
	}{
		{&st.createSession, "CreateSession", sqlCreateSession},
		{&st.getSession, "GetSession", sqlGetSession},
		{&st.deleteSession, "DeleteSession", sqlDeleteSession},
		{&st.listSessions, "ListSessions", sqlListSessions},
		{&st.createChannel, "CreateChannel", sqlCreateChannel},
		{&st.getChannel, "GetChannel", sqlGetChannel},
		{&st.listChannels, "ListChannels", sqlListChannels},
		{&st.saveEvent, "SaveEvent", sqlSaveEvent},
		{&st.deleteExclusions, "DeleteExclusions", sqlDeleteExclusions},
		{&st.insertExclusion, "InsertExclusion", sqlInsertExclusion},
		{&st.listEvents, "ListEvents", sqlListEvents},
		{&st.listExclusions, "ListExclusions", sqlListExclusions},
		{&st.setEnabled, "SetEnabled", sqlSetEnabled},
		{&st.countEvents, "CountEvents", sqlCountEvents},
		{&st.addContext, "AddContext", sqlAddContext},
		{&st.listContexts, "ListContexts", sqlListContexts},
	}
}

func prepareStatements(ctx context.Context, db *sql.DB) (*statements, error) {
	st := &statements{}
	for _, s := range st.all() {
		stmt, err := db.PrepareContext(ctx, s.sql)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("prepare %s: %w", s.name, err)
		}
		*s.stmt = stmt
	}
	return st, nil
}

// bind returns transaction-specific handles for every statement. No
// SQL is parsed here.
func (st *statements) bind(ctx context.Context, tx *sql.Tx) *statements {
	bound := &statements{}
	src := st.all()
	for i, dst := range bound.all() {
		*dst.stmt = tx.StmtContext(ctx, *src[i].stmt)
	}
	return bound
}

// close closes every prepared statement, ignoring errors since the
// database is about to be closed.
func (st *statements) close() {
	for _, s := range st.all() {
		if *s.stmt != nil {
			(*s.stmt).Close()
		}
	}
}
