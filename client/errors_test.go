package client

import (
	"context"
	"errors"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/wire"
)

func statusWithInfo(t *testing.T, code codes.Code, msg, domain, reason string) error {
	t.Helper()
	st, err := status.New(code, msg).WithDetails(&errdetails.ErrorInfo{Domain: domain, Reason: reason})
	require.NoError(t, err)
	return st.Err()
}

func TestFromStatus(t *testing.T) {
	plain := errors.New("plain")

	tests := []struct {
		name  string
		in    error
		check func(t *testing.T, err error)
	}{
		{"nil", nil, func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"not a status", plain, func(t *testing.T, err error) { assert.Same(t, plain, err) }},
		{"kind from error info", statusWithInfo(t, codes.InvalidArgument, "bad pattern", wire.ErrorDomain, "InvalidExclusion"),
			func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tracectl.ErrInvalidExclusion)
				assert.Equal(t, "bad pattern", err.Error())
			}},
		{"foreign error info is ignored", statusWithInfo(t, codes.NotFound, "gone", "example.com", "NotFound"),
			func(t *testing.T, err error) {
				assert.Equal(t, tracectl.KindUnknown, tracectl.KindOf(err))
				assert.True(t, errdefs.IsNotFound(err))
			}},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"),
			func(t *testing.T, err error) { assert.ErrorIs(t, err, tracectl.ErrCommunication) }},
		{"deadline", status.Error(codes.DeadlineExceeded, "too slow"),
			func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tracectl.ErrCommunication)
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			}},
		{"already exists", status.Error(codes.AlreadyExists, "session \"s1\""),
			func(t *testing.T, err error) { assert.True(t, errdefs.IsAlreadyExists(err)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fromStatus(tt.in))
		})
	}
}

func TestParseAddress(t *testing.T) {
	assert.Equal(t, "unix:///run/x.sock", parseAddress("/run/x.sock"))
	assert.Equal(t, "unix:///run/x.sock", parseAddress("unix:///run/x.sock"))
	assert.Equal(t, "localhost:5566", parseAddress("localhost:5566"))
}
