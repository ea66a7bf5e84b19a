package interpreter

import (
	"context"
	"fmt"

	"github.com/frobware/go-tracectl/action"
)

// ActionExecutor executes reified actions.
type ActionExecutor interface {
	Execute(ctx context.Context, a action.Action) error
	ExecuteAll(ctx context.Context, actions []action.Action) error
}

type executor struct {
	store Store
}

// NewExecutor returns an executor that applies actions to s. Pass a
// transaction-bound store to make a batch atomic.
func NewExecutor(s Store) ActionExecutor {
	return &executor{store: s}
}

func (e *executor) Execute(ctx context.Context, a action.Action) error {
	switch a := a.(type) {
	case action.CreateSession:
		return e.store.CreateSession(ctx, a.Session)

	case action.DeleteSession:
		return e.store.DeleteSession(ctx, a.Name)

	case action.CreateChannel:
		_, err := e.store.CreateChannel(ctx, a.Channel)
		return err

	case action.SaveEvent:
		ch, err := e.store.GetChannel(ctx, a.Channel)
		if err != nil {
			return fmt.Errorf("save event %q: %w", a.Event.Event.Name, err)
		}
		return e.store.SaveEvent(ctx, ch.ID, a.Event)

	case action.SetEnabled:
		ch, err := e.store.GetChannel(ctx, a.Channel)
		if err != nil {
			return err
		}
		_, err = e.store.SetEnabled(ctx, ch.ID, a.Name, a.Enabled)
		return err

	case action.AddContext:
		ch, err := e.store.GetChannel(ctx, a.Channel)
		if err != nil {
			return err
		}
		return e.store.AddContext(ctx, ch.ID, a.Context)

	case action.Sequence:
		return e.ExecuteAll(ctx, a.Actions)

	default:
		return fmt.Errorf("unknown action type: %T", a)
	}
}

// ExecuteAll runs actions in order and stops at the first error.
func (e *executor) ExecuteAll(ctx context.Context, actions []action.Action) error {
	for _, a := range actions {
		if err := e.Execute(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
