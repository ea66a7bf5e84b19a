package client

import (
	"github.com/containerd/errdefs/pkg/errgrpc"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/wire"
)

// fromStatus turns a gRPC status back into a tracectl error. The kind
// comes from the ErrorInfo detail when the daemon attached one; a
// transport failure is a Communication error; anything else is mapped
// to its errdefs class.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.Domain != wire.ErrorDomain {
			continue
		}
		if kind, ok := tracectl.ParseKind(info.Reason); ok {
			return tracectl.Errorf(kind, "%s", st.Message())
		}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return tracectl.Wrap(tracectl.KindCommunication, errgrpc.ToNative(err), "control call")
	}
	return errgrpc.ToNative(err)
}
