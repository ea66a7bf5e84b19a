package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl/logging"
)

func TestUndoStack_ReverseOrder(t *testing.T) {
	var order []int
	var undo undoStack
	for i := range 3 {
		undo.push(func() error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, undo.unwind(logging.Discard()))
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestUndoStack_RunsEveryStepAndJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	ran := 0
	var undo undoStack
	undo.push(func() error { ran++; return errA })
	undo.push(func() error { ran++; return nil })
	undo.push(func() error { ran++; return errB })

	err := undo.unwind(logging.Discard())
	assert.Equal(t, 3, ran)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestUndoStack_UnwindTwiceIsNoop(t *testing.T) {
	calls := 0
	var undo undoStack
	undo.push(func() error { calls++; return nil })

	require.NoError(t, undo.unwind(logging.Discard()))
	require.NoError(t, undo.unwind(logging.Discard()))
	assert.Equal(t, 1, calls)
}
