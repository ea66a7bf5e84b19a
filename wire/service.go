package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tracectl.v1.Control"

// Full method names.
const (
	MethodListEvents           = "/" + ServiceName + "/ListEvents"
	MethodListTracepoints      = "/" + ServiceName + "/ListTracepoints"
	MethodListTracepointFields = "/" + ServiceName + "/ListTracepointFields"
	MethodAddContext           = "/" + ServiceName + "/AddContext"
	MethodEnableEvent          = "/" + ServiceName + "/EnableEvent"
	MethodDisableEvent         = "/" + ServiceName + "/DisableEvent"
	MethodEnableChannel        = "/" + ServiceName + "/EnableChannel"
	MethodListChannels         = "/" + ServiceName + "/ListChannels"
	MethodCreateSession        = "/" + ServiceName + "/CreateSession"
	MethodDestroySession       = "/" + ServiceName + "/DestroySession"
	MethodListSessions         = "/" + ServiceName + "/ListSessions"
)

// ControlServer is implemented by the daemon.
type ControlServer interface {
	ListEvents(context.Context, *ChannelRequest) (*EventList, error)
	ListTracepoints(context.Context, *DomainRequest) (*EventList, error)
	ListTracepointFields(context.Context, *DomainRequest) (*FieldList, error)
	AddContext(context.Context, *AddContextRequest) (*Empty, error)
	EnableEvent(context.Context, *EnableEventRequest) (*Empty, error)
	DisableEvent(context.Context, *DisableEventRequest) (*Empty, error)
	EnableChannel(context.Context, *ChannelRequest) (*Empty, error)
	ListChannels(context.Context, *DomainRequest) (*ChannelList, error)
	CreateSession(context.Context, *SessionRequest) (*Session, error)
	DestroySession(context.Context, *SessionRequest) (*Empty, error)
	ListSessions(context.Context, *Empty) (*SessionList, error)
}

// RegisterControlServer registers srv with s.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ControlServiceDesc, srv)
}

// unary builds the method descriptor for one RPC. It does what a
// generated _Handler function does for a proto service.
func unary[Req any, Resp any, PReq interface {
	*Req
	Message
}](name string, call func(ControlServer, context.Context, PReq) (*Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ControlServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ControlServiceDesc describes the control service to grpc.Server.
var ControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListEvents", ControlServer.ListEvents),
		unary("ListTracepoints", ControlServer.ListTracepoints),
		unary("ListTracepointFields", ControlServer.ListTracepointFields),
		unary("AddContext", ControlServer.AddContext),
		unary("EnableEvent", ControlServer.EnableEvent),
		unary("DisableEvent", ControlServer.DisableEvent),
		unary("EnableChannel", ControlServer.EnableChannel),
		unary("ListChannels", ControlServer.ListChannels),
		unary("CreateSession", ControlServer.CreateSession),
		unary("DestroySession", ControlServer.DestroySession),
		unary("ListSessions", ControlServer.ListSessions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tracectl/v1/control",
}

// ControlClient is the client stub of the control service. Every call
// selects the tracectl codec.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

// NewControlClient returns a stub bound to cc.
func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func invoke[Resp any, PResp interface {
	*Resp
	Message
}](ctx context.Context, cc grpc.ClientConnInterface, method string, in Message, opts []grpc.CallOption) (PResp, error) {
	out := PResp(new(Resp))
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) ListEvents(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*EventList, error) {
	return invoke[EventList](ctx, c.cc, MethodListEvents, in, opts)
}

func (c *ControlClient) ListTracepoints(ctx context.Context, in *DomainRequest, opts ...grpc.CallOption) (*EventList, error) {
	return invoke[EventList](ctx, c.cc, MethodListTracepoints, in, opts)
}

func (c *ControlClient) ListTracepointFields(ctx context.Context, in *DomainRequest, opts ...grpc.CallOption) (*FieldList, error) {
	return invoke[FieldList](ctx, c.cc, MethodListTracepointFields, in, opts)
}

func (c *ControlClient) AddContext(ctx context.Context, in *AddContextRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodAddContext, in, opts)
}

func (c *ControlClient) EnableEvent(ctx context.Context, in *EnableEventRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodEnableEvent, in, opts)
}

func (c *ControlClient) DisableEvent(ctx context.Context, in *DisableEventRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDisableEvent, in, opts)
}

func (c *ControlClient) EnableChannel(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodEnableChannel, in, opts)
}

func (c *ControlClient) ListChannels(ctx context.Context, in *DomainRequest, opts ...grpc.CallOption) (*ChannelList, error) {
	return invoke[ChannelList](ctx, c.cc, MethodListChannels, in, opts)
}

func (c *ControlClient) CreateSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, MethodCreateSession, in, opts)
}

func (c *ControlClient) DestroySession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDestroySession, in, opts)
}

func (c *ControlClient) ListSessions(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionList, error) {
	return invoke[SessionList](ctx, c.cc, MethodListSessions, in, opts)
}

// ErrorDomain is the errdetails.ErrorInfo domain of control errors. The
// reason field carries the tracectl.Kind name.
const ErrorDomain = "tracectl.v1"
