package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store"
	"github.com/frobware/go-tracectl/interpreter/store/sqlite"
)

// testLogger discards output unless TRACECTL_TEST_VERBOSE is set.
func testLogger() *slog.Logger {
	if os.Getenv("TRACECTL_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) interpreter.Store {
	t.Helper()
	st, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { st.Close() })
	return st
}

func newSession(t *testing.T, st interpreter.Store, name string) {
	t.Helper()
	require.NoError(t, st.CreateSession(context.Background(), tracectl.Session{
		Name:      name,
		ID:        name + "-id",
		CreatedAt: time.Now(),
	}))
}

func kernelChannel(session, name string) store.ChannelKey {
	return store.ChannelKey{Session: session, Domain: tracectl.DomainKernel, Name: name}
}

func tracepoint(name string, enabled tracectl.EnabledState) store.EventRecord {
	return store.EventRecord{Event: tracectl.Event{
		Type:    tracectl.EventTypeTracepoint,
		Name:    name,
		Enabled: enabled,
	}}
}

// TestSession_Lifecycle verifies that:
//
// Given an empty store,
// When a session is created, listed, fetched and deleted,
// Then each step observes the session exactly as stored.
func TestSession_Lifecycle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	require.NoError(t, st.CreateSession(ctx, tracectl.Session{Name: "s1", ID: "abc", CreatedAt: created}))

	got, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.True(t, created.Equal(got.CreatedAt))

	all, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, st.DeleteSession(ctx, "s1"))
	_, err = st.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteSession(ctx, "s1"), store.ErrNotFound)
}

// TestSession_DuplicateName verifies that:
//
// Given a session named s1,
// When another session named s1 is created,
// Then the store reports ErrAlreadyExists.
func TestSession_DuplicateName(t *testing.T) {
	st := newStore(t)
	newSession(t, st, "s1")

	err := st.CreateSession(context.Background(), tracectl.Session{Name: "s1", ID: "other", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

// TestChannel_RequiresSession verifies that:
//
// Given no sessions,
// When a channel is created,
// Then the foreign key constraint rejects it.
func TestChannel_RequiresSession(t *testing.T) {
	st := newStore(t)
	_, err := st.CreateChannel(context.Background(), kernelChannel("missing", "c0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY constraint failed")
}

// TestChannel_CreateIsIdempotent verifies that:
//
// Given a channel c0,
// When c0 is created again,
// Then the same record is returned and only one channel exists.
func TestChannel_CreateIsIdempotent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")

	first, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)
	second, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	chans, err := st.ListChannels(ctx, "s1", tracectl.DomainKernel)
	require.NoError(t, err)
	assert.Len(t, chans, 1)

	other, err := st.ListChannels(ctx, "s1", tracectl.DomainUST)
	require.NoError(t, err)
	assert.Empty(t, other, "channels are scoped by domain")
}

// TestEvent_UpsertKeepsCreationOrder verifies that:
//
// Given events A and B saved in that order,
// When A is saved again disabled,
// Then the list still reads A, B and A is disabled.
func TestEvent_UpsertKeepsCreationOrder(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)

	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("A", tracectl.Enabled)))
	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("B", tracectl.Enabled)))
	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("A", tracectl.Disabled)))

	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Event.Name)
	assert.Equal(t, tracectl.Disabled, events[0].Event.Enabled)
	assert.Equal(t, "B", events[1].Event.Name)

	n, err := st.CountEvents(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestEvent_FilterAndExclusions verifies that:
//
// Given an event saved with a filter and two exclusions,
// When the event is listed and then saved again without exclusions,
// Then the flags follow the attached metadata each time.
func TestEvent_FilterAndExclusions(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)

	rec := tracepoint("sched_*", tracectl.Enabled)
	rec.Filter = "prev_pid == 1"
	rec.Exclusions = []string{"sched_switch", "sched_wak*"}
	require.NoError(t, st.SaveEvent(ctx, ch.ID, rec))

	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "prev_pid == 1", events[0].Filter)
	assert.Equal(t, []string{"sched_switch", "sched_wak*"}, events[0].Exclusions)
	assert.True(t, events[0].Event.HasFilter)
	assert.True(t, events[0].Event.HasExclusion)

	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("sched_*", tracectl.Enabled)))
	events, err = st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Exclusions)
	assert.False(t, events[0].Event.HasFilter)
	assert.False(t, events[0].Event.HasExclusion)
}

// TestEvent_AttrSurvivesStorage verifies that:
//
// Given a probe event with a symbol and offset,
// When it is stored and listed,
// Then the probe payload is unchanged.
func TestEvent_AttrSurvivesStorage(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)

	rec := store.EventRecord{Event: tracectl.Event{
		Type:    tracectl.EventTypeProbe,
		Name:    "open_probe",
		Enabled: tracectl.Enabled,
		Attr:    &tracectl.ProbeAttr{SymbolName: "do_sys_open", Offset: 8},
	}}
	require.NoError(t, st.SaveEvent(ctx, ch.ID, rec))

	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, rec.Event.Equal(events[0].Event), "got %+v", events[0].Event)
}

// TestEvent_SetEnabled verifies that:
//
// Given enabled events A and B,
// When all events are disabled and then only B is enabled,
// Then the affected counts and states match.
func TestEvent_SetEnabled(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)
	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("A", tracectl.Enabled)))
	require.NoError(t, st.SaveEvent(ctx, ch.ID, tracepoint("B", tracectl.Enabled)))

	n, err := st.SetEnabled(ctx, ch.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = st.SetEnabled(ctx, ch.ID, "B", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = st.SetEnabled(ctx, ch.ID, "missing", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, tracectl.Disabled, events[0].Event.Enabled)
	assert.Equal(t, tracectl.Enabled, events[1].Event.Enabled)
}

// TestContext_StoredOnce verifies that:
//
// Given a channel,
// When the same perf context is added twice alongside a pid context,
// Then two contexts are listed in insertion order.
func TestContext_StoredOnce(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)

	perf, err := tracectl.ParseContext("perf:cpu:cache-misses")
	require.NoError(t, err)
	require.NoError(t, st.AddContext(ctx, ch.ID, perf))
	require.NoError(t, st.AddContext(ctx, ch.ID, tracectl.Context{Type: tracectl.ContextPID}))
	require.NoError(t, st.AddContext(ctx, ch.ID, perf))

	got, err := st.ListContexts(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, perf.Equal(got[0]))
	assert.Equal(t, tracectl.ContextPID, got[1].Type)
}

// TestDeleteSession_Cascades verifies that:
//
// Given a session with a channel, an event, an exclusion and a context,
// When the session is deleted and recreated,
// Then none of the old channels remain.
func TestDeleteSession_Cascades(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")
	ch, err := st.CreateChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)
	rec := tracepoint("x*", tracectl.Enabled)
	rec.Exclusions = []string{"xy"}
	require.NoError(t, st.SaveEvent(ctx, ch.ID, rec))
	require.NoError(t, st.AddContext(ctx, ch.ID, tracectl.Context{Type: tracectl.ContextTID}))

	require.NoError(t, st.DeleteSession(ctx, "s1"))
	newSession(t, st, "s1")

	chans, err := st.ListChannels(ctx, "s1", tracectl.DomainKernel)
	require.NoError(t, err)
	assert.Empty(t, chans)
	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// TestRunInTransaction_RollsBack verifies that:
//
// Given a session,
// When a transaction creates a channel and then fails,
// Then the channel does not exist afterwards.
func TestRunInTransaction_RollsBack(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")

	boom := errors.New("boom")
	err := st.RunInTransaction(ctx, func(tx interpreter.Store) error {
		if _, err := tx.CreateChannel(ctx, kernelChannel("s1", "c0")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = st.GetChannel(ctx, kernelChannel("s1", "c0"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestRunInTransaction_Commits verifies that:
//
// Given a session,
// When a transaction creates a channel and saves an event,
// Then both are visible after commit.
func TestRunInTransaction_Commits(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	newSession(t, st, "s1")

	err := st.RunInTransaction(ctx, func(tx interpreter.Store) error {
		ch, err := tx.CreateChannel(ctx, kernelChannel("s1", "c0"))
		if err != nil {
			return err
		}
		return tx.SaveEvent(ctx, ch.ID, tracepoint("A", tracectl.Enabled))
	})
	require.NoError(t, err)

	ch, err := st.GetChannel(ctx, kernelChannel("s1", "c0"))
	require.NoError(t, err)
	events, err := st.ListEvents(ctx, ch.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// TestNew_PersistsAcrossReopen verifies that:
//
// Given a file-backed store with a session,
// When the store is closed and reopened,
// Then the session is still there.
func TestNew_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/db/state.db"

	st, err := sqlite.New(ctx, path, testLogger())
	require.NoError(t, err)
	newSession(t, st, "s1")
	require.NoError(t, st.Close())

	st, err = sqlite.New(ctx, path, testLogger())
	require.NoError(t, err)
	defer st.Close()
	_, err = st.GetSession(ctx, "s1")
	assert.NoError(t, err)
}
