package cli_test

import (
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/frobware/go-tracectl/cmd/tracectl/cli"
)

// failingWriter accepts budget bytes and then fails with failErr. With
// shortWriteEvery > 0 every Nth call writes one byte and returns a nil
// error.
type failingWriter struct {
	budget          int
	failErr         error
	shortWriteEvery int
	writes          int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.shortWriteEvery > 0 && w.writes%w.shortWriteEvery == 0 {
		return min(len(p), 1), nil
	}
	if w.budget <= 0 {
		return 0, w.failErr
	}
	if len(p) <= w.budget {
		w.budget -= len(p)
		return len(p), nil
	}
	n := w.budget
	w.budget = 0
	return n, w.failErr
}

var _ io.Writer = (*failingWriter)(nil)

func TestCLIWriteOut(t *testing.T) {
	tests := []struct {
		name    string
		w       *failingWriter
		wantErr error
	}{
		{"fails immediately", &failingWriter{failErr: syscall.ENOSPC}, syscall.ENOSPC},
		{"partial then fail", &failingWriter{budget: 3, failErr: syscall.ENOSPC}, syscall.ENOSPC},
		{"short write", &failingWriter{budget: 10, failErr: syscall.ENOSPC, shortWriteEvery: 1}, io.ErrShortWrite},
		{"within budget", &failingWriter{budget: 10, failErr: syscall.ENOSPC}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cli.CLI{Out: tt.w}
			err := c.WriteOut([]byte("hello"))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCLIPrintOut_PropagatesError(t *testing.T) {
	c := &cli.CLI{Out: &failingWriter{failErr: syscall.EPIPE}}
	require.ErrorIs(t, c.PrintOut("test output"), syscall.EPIPE)
	require.ErrorIs(t, c.PrintOutf("test %s", "output"), syscall.EPIPE)
}
