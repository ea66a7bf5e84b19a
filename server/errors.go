package server

import (
	"errors"
	"strconv"

	"github.com/containerd/errdefs/pkg/errgrpc"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/wire"
)

// toStatus converts a manager error to a gRPC status error. Typed
// errors carry their kind in an ErrorInfo detail; anything else is
// classified by errgrpc from its errdefs class.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var te *tracectl.Error
	if !errors.As(err, &te) {
		return errgrpc.ToGRPC(err)
	}

	st := status.New(kindCode(te.Kind), err.Error())
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: te.Kind.String(),
		Domain: wire.ErrorDomain,
		Metadata: map[string]string{
			"code": strconv.Itoa(te.Kind.Code()),
		},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

func kindCode(k tracectl.Kind) codes.Code {
	switch k {
	case tracectl.KindInvalidHandle, tracectl.KindInvalidArgument, tracectl.KindInvalidExclusion:
		return codes.InvalidArgument
	case tracectl.KindNotFound:
		return codes.NotFound
	case tracectl.KindCommunication:
		return codes.Unavailable
	case tracectl.KindAllocation:
		return codes.ResourceExhausted
	default:
		return codes.Unknown
	}
}
