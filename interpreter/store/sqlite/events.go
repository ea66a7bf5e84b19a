package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/store"
	"github.com/frobware/go-tracectl/wire"
)

// SaveEvent upserts the event keyed by (channel, type, name) and
// replaces its exclusion list.
func (s *sqliteStore) SaveEvent(ctx context.Context, channelID int64, rec store.EventRecord) error {
	ev := rec.Descriptor()
	blob, err := wire.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", ev.Name, err)
	}

	args := []any{channelID, int32(ev.Type), ev.Name, ev.Enabled == tracectl.Enabled, rec.Filter}
	start := time.Now()
	var eventID int64
	err = s.stmts.saveEvent.QueryRowContext(ctx, channelID, int32(ev.Type), ev.Name,
		ev.Enabled == tracectl.Enabled, rec.Filter, blob).Scan(&eventID)
	s.logStmt("SaveEvent", args, start, 1, err)
	if err != nil {
		return fmt.Errorf("save event %q: %w", ev.Name, err)
	}

	start = time.Now()
	res, err := s.stmts.deleteExclusions.ExecContext(ctx, eventID)
	if err != nil {
		s.logStmt("DeleteExclusions", []any{eventID}, start, 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	s.logStmt("DeleteExclusions", []any{eventID}, start, n, nil)

	for i, p := range rec.Exclusions {
		args := []any{eventID, i, p}
		start := time.Now()
		_, err := s.stmts.insertExclusion.ExecContext(ctx, args...)
		s.logStmt("InsertExclusion", args, start, 1, err)
		if err != nil {
			return fmt.Errorf("save exclusion %q for event %q: %w", p, ev.Name, err)
		}
	}
	return nil
}

// ListEvents returns the events of a channel in creation order.
func (s *sqliteStore) ListEvents(ctx context.Context, channelID int64) ([]store.EventRecord, error) {
	args := []any{channelID}
	start := time.Now()
	rows, err := s.stmts.listEvents.QueryContext(ctx, channelID)
	if err != nil {
		s.logStmt("ListEvents", args, start, 0, err)
		return nil, err
	}

	type row struct {
		id  int64
		rec store.EventRecord
	}
	var found []row
	for rows.Next() {
		var (
			r       row
			enabled bool
			blob    []byte
		)
		if err := rows.Scan(&r.id, &enabled, &r.rec.Filter, &blob); err != nil {
			rows.Close()
			s.logStmt("ListEvents", args, start, 0, err)
			return nil, err
		}
		ev, err := wire.UnmarshalEvent(blob)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode event %d: %w", r.id, err)
		}
		ev.Enabled = tracectl.Disabled
		if enabled {
			ev.Enabled = tracectl.Enabled
		}
		r.rec.Event = ev
		found = append(found, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		s.logStmt("ListEvents", args, start, 0, err)
		return nil, err
	}
	s.logStmt("ListEvents", args, start, int64(len(found)), nil)

	// Exclusions are read once the event cursor is closed so the
	// connection is free inside a transaction.
	result := make([]store.EventRecord, 0, len(found))
	for _, r := range found {
		excl, err := s.listExclusions(ctx, r.id)
		if err != nil {
			return nil, err
		}
		r.rec.Exclusions = excl
		r.rec.Event = r.rec.Descriptor()
		result = append(result, r.rec)
	}
	return result, nil
}

func (s *sqliteStore) listExclusions(ctx context.Context, eventID int64) ([]string, error) {
	args := []any{eventID}
	start := time.Now()
	rows, err := s.stmts.listExclusions.QueryContext(ctx, eventID)
	if err != nil {
		s.logStmt("ListExclusions", args, start, 0, err)
		return nil, err
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		s.logStmt("ListExclusions", args, start, 0, err)
		return nil, err
	}
	s.logStmt("ListExclusions", args, start, int64(len(patterns)), nil)
	return patterns, nil
}

// SetEnabled flips the enabled column of the matching events and
// returns how many changed state.
func (s *sqliteStore) SetEnabled(ctx context.Context, channelID int64, name string, enabled bool) (int64, error) {
	args := []any{enabled, channelID, name, name, enabled}
	start := time.Now()
	res, err := s.stmts.setEnabled.ExecContext(ctx, args...)
	if err != nil {
		s.logStmt("SetEnabled", args, start, 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	s.logStmt("SetEnabled", args, start, n, err)
	return n, err
}

// CountEvents returns the number of events on a channel.
func (s *sqliteStore) CountEvents(ctx context.Context, channelID int64) (int, error) {
	start := time.Now()
	var n int
	err := s.stmts.countEvents.QueryRowContext(ctx, channelID).Scan(&n)
	s.logStmt("CountEvents", []any{channelID}, start, 1, err)
	return n, err
}
