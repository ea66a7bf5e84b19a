package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/store"
	"github.com/frobware/go-tracectl/wire"
)

// CreateChannel creates the channel if it does not exist and returns
// the stored record either way. The session must exist.
func (s *sqliteStore) CreateChannel(ctx context.Context, key store.ChannelKey) (store.ChannelRecord, error) {
	args := []any{key.Session, int32(key.Domain), key.Name, time.Now().UTC().Format(time.RFC3339Nano)}
	start := time.Now()
	res, err := s.stmts.createChannel.ExecContext(ctx, args...)
	if err != nil {
		s.logStmt("CreateChannel", args, start, 0, err)
		return store.ChannelRecord{}, fmt.Errorf("channel %s: %w", key, err)
	}
	n, _ := res.RowsAffected()
	s.logStmt("CreateChannel", args, start, n, nil)
	return s.GetChannel(ctx, key)
}

// GetChannel returns the channel or store.ErrNotFound.
func (s *sqliteStore) GetChannel(ctx context.Context, key store.ChannelKey) (store.ChannelRecord, error) {
	args := []any{key.Session, int32(key.Domain), key.Name}
	start := time.Now()
	rec := store.ChannelRecord{Key: key}
	var created string
	err := s.stmts.getChannel.QueryRowContext(ctx, args...).Scan(&rec.ID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		s.logStmt("GetChannel", args, start, 0, nil)
		return store.ChannelRecord{}, fmt.Errorf("channel %s: %w", key, store.ErrNotFound)
	}
	s.logStmt("GetChannel", args, start, 1, err)
	if err != nil {
		return store.ChannelRecord{}, err
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.ChannelRecord{}, fmt.Errorf("channel %s: bad created_at %q: %w", key, created, err)
	}
	return rec, nil
}

// ListChannels returns a session's channels in one domain, oldest
// first.
func (s *sqliteStore) ListChannels(ctx context.Context, session string, domain tracectl.Domain) ([]store.ChannelRecord, error) {
	args := []any{session, int32(domain)}
	start := time.Now()
	rows, err := s.stmts.listChannels.QueryContext(ctx, args...)
	if err != nil {
		s.logStmt("ListChannels", args, start, 0, err)
		return nil, err
	}
	defer rows.Close()

	var result []store.ChannelRecord
	for rows.Next() {
		rec := store.ChannelRecord{Key: store.ChannelKey{Session: session, Domain: domain}}
		var created string
		if err := rows.Scan(&rec.ID, &rec.Key.Name, &created); err != nil {
			s.logStmt("ListChannels", args, start, 0, err)
			return nil, err
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("channel %s: bad created_at %q: %w", rec.Key, created, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		s.logStmt("ListChannels", args, start, 0, err)
		return nil, err
	}
	s.logStmt("ListChannels", args, start, int64(len(result)), nil)
	return result, nil
}

// AddContext attaches c to the channel. A context with the same type
// and perf counter name is stored once.
func (s *sqliteStore) AddContext(ctx context.Context, channelID int64, c tracectl.Context) error {
	blob, err := wire.MarshalContext(c)
	if err != nil {
		return fmt.Errorf("encode context %s: %w", c, err)
	}
	perfName := ""
	if c.Perf != nil {
		perfName = c.Perf.Name
	}
	args := []any{channelID, int32(c.Type), perfName}
	start := time.Now()
	res, err := s.stmts.addContext.ExecContext(ctx, channelID, int32(c.Type), perfName, blob)
	if err != nil {
		s.logStmt("AddContext", args, start, 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	s.logStmt("AddContext", args, start, n, nil)
	return nil
}

// ListContexts returns the contexts attached to a channel in the order
// they were added.
func (s *sqliteStore) ListContexts(ctx context.Context, channelID int64) ([]tracectl.Context, error) {
	args := []any{channelID}
	start := time.Now()
	rows, err := s.stmts.listContexts.QueryContext(ctx, channelID)
	if err != nil {
		s.logStmt("ListContexts", args, start, 0, err)
		return nil, err
	}
	defer rows.Close()

	var result []tracectl.Context
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			s.logStmt("ListContexts", args, start, 0, err)
			return nil, err
		}
		c, err := wire.UnmarshalContext(blob)
		if err != nil {
			return nil, fmt.Errorf("decode context on channel %d: %w", channelID, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		s.logStmt("ListContexts", args, start, 0, err)
		return nil, err
	}
	s.logStmt("ListContexts", args, start, int64(len(result)), nil)
	return result, nil
}
