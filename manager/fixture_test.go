package manager_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter"
	"github.com/frobware/go-tracectl/interpreter/store/sqlite"
	"github.com/frobware/go-tracectl/manager"
)

// testLogger discards output unless TRACECTL_TEST_VERBOSE is set.
func testLogger() *slog.Logger {
	if os.Getenv("TRACECTL_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTracer implements interpreter.Tracer with a fixed set of points
// and an optional CheckEvent failure.
type fakeTracer struct {
	mu       sync.Mutex
	points   []tracectl.Event
	fields   []tracectl.Field
	checkErr error
	listErr  error
	checked  []tracectl.Key
}

var _ interpreter.Tracer = (*fakeTracer)(nil)

func (f *fakeTracer) Tracepoints(ctx context.Context) ([]tracectl.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]tracectl.Event(nil), f.points...), nil
}

func (f *fakeTracer) Fields(ctx context.Context) ([]tracectl.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]tracectl.Field(nil), f.fields...), nil
}

func (f *fakeTracer) CheckEvent(ctx context.Context, ev tracectl.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, ev.Key())
	return f.checkErr
}

func (f *fakeTracer) failChecks(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkErr = err
}

// testFixture bundles a manager with the store and tracers behind it.
type testFixture struct {
	Manager *manager.Manager
	Store   interpreter.Store
	Kernel  *fakeTracer
	UST     *fakeTracer
	t       *testing.T
}

const testSession = "s1"

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	st, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { st.Close() })

	kernel := &fakeTracer{
		points: []tracectl.Event{
			{Type: tracectl.EventTypeTracepoint, Name: "sched_switch", Enabled: tracectl.Disabled},
			{Type: tracectl.EventTypeSyscall, Name: "openat"},
		},
		fields: []tracectl.Field{
			{Name: "prev_pid", Type: tracectl.FieldTypeInteger, Writable: true,
				Event: tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: "sched_switch"}},
		},
	}
	ust := &fakeTracer{}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr := manager.New(st,
		manager.WithTracer(tracectl.DomainKernel, kernel),
		manager.WithTracer(tracectl.DomainUST, ust),
		manager.WithLogger(testLogger()),
		manager.WithClock(func() time.Time { return clock }))

	_, err = mgr.CreateSession(context.Background(), testSession)
	require.NoError(t, err)

	return &testFixture{Manager: mgr, Store: st, Kernel: kernel, UST: ust, t: t}
}

func (f *testFixture) handle(d tracectl.Domain) *tracectl.Handle {
	f.t.Helper()
	h, err := tracectl.NewHandle(testSession, d)
	require.NoError(f.t, err)
	return h
}

// enabledByName returns name -> enabled for a channel's events.
func (f *testFixture) enabledByName(h *tracectl.Handle, channel string) map[string]tracectl.EnabledState {
	f.t.Helper()
	events, err := f.Manager.ListEvents(context.Background(), h, channel)
	require.NoError(f.t, err)
	out := make(map[string]tracectl.EnabledState, len(events))
	for _, ev := range events {
		out[ev.Name] = ev.Enabled
	}
	return out
}

func (f *testFixture) channelNames(h *tracectl.Handle) []string {
	f.t.Helper()
	chans, err := f.Manager.ListChannels(context.Background(), h)
	require.NoError(f.t, err)
	var names []string
	for _, ch := range chans {
		names = append(names, ch.Name)
	}
	return names
}

// failingContextStore fails every AddContext, inside transactions too.
type failingContextStore struct {
	interpreter.Store
	err error
}

func (s failingContextStore) AddContext(ctx context.Context, channelID int64, c tracectl.Context) error {
	return s.err
}

func (s failingContextStore) RunInTransaction(ctx context.Context, fn func(interpreter.Store) error) error {
	return s.Store.RunInTransaction(ctx, func(tx interpreter.Store) error {
		return fn(failingContextStore{Store: tx, err: s.err})
	})
}

// withStore returns a manager over st sharing the fixture's tracers.
func (f *testFixture) withStore(st interpreter.Store) *manager.Manager {
	return manager.New(st,
		manager.WithTracer(tracectl.DomainKernel, f.Kernel),
		manager.WithTracer(tracectl.DomainUST, f.UST),
		manager.WithLogger(testLogger()))
}

func tracepoint(name string) *tracectl.Event {
	return &tracectl.Event{Type: tracectl.EventTypeTracepoint, Name: name}
}

var errTracerDown = errors.New("tracer went away")
