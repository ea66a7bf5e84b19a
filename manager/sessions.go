package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/action"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store"
)

// CreateSession creates a session with a fresh id. A duplicate name
// fails with errdefs.ErrAlreadyExists.
func (m *Manager) CreateSession(ctx context.Context, name string) (tracectl.Session, error) {
	if _, err := tracectl.NewHandle(name, tracectl.DomainKernel); err != nil {
		return tracectl.Session{}, tracectl.Errorf(tracectl.KindInvalidArgument, "invalid session name %q", name)
	}
	sess := tracectl.Session{Name: name, ID: m.newID(), CreatedAt: m.now().UTC()}

	err := m.inTx(ctx, func(_ interpreter.Store, exec interpreter.ActionExecutor) error {
		return exec.Execute(ctx, action.CreateSession{Session: sess})
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return tracectl.Session{}, fmt.Errorf("session %q: %w", name, errdefs.ErrAlreadyExists)
	}
	if err != nil {
		return tracectl.Session{}, fmt.Errorf("create session %q: %w", name, err)
	}
	m.logger.InfoContext(ctx, "created session", "session", name, "id", sess.ID)
	return sess, nil
}

// DestroySession removes a session with every channel, event and
// context under it.
func (m *Manager) DestroySession(ctx context.Context, name string) error {
	err := m.inTx(ctx, func(tx interpreter.Store, exec interpreter.ActionExecutor) error {
		if _, err := tx.GetSession(ctx, name); err != nil {
			return storeError(err, fmt.Sprintf("session %q", name))
		}
		return exec.Execute(ctx, action.DeleteSession{Name: name})
	})
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "destroyed session", "session", name)
	return nil
}

// ListSessions returns every session, oldest first.
func (m *Manager) ListSessions(ctx context.Context) ([]tracectl.Session, error) {
	sessions, err := m.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
