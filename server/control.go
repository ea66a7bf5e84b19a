package server

import (
	"context"

	"github.com/frobware/go-tracectl/wire"
)

var _ wire.ControlServer = (*Server)(nil)

// ListEvents returns the events configured on a channel.
func (s *Server) ListEvents(ctx context.Context, req *wire.ChannelRequest) (*wire.EventList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.mgr.ListEvents(ctx, req.Handle.Handle(), req.Channel)
	if err != nil {
		return nil, err
	}
	return &wire.EventList{Events: events}, nil
}

// ListTracepoints returns the instrumentation points of a domain.
func (s *Server) ListTracepoints(ctx context.Context, req *wire.DomainRequest) (*wire.EventList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.mgr.ListTracepoints(ctx, req.Handle.Handle())
	if err != nil {
		return nil, err
	}
	return &wire.EventList{Events: events}, nil
}

// ListTracepointFields returns the fields of a domain's points.
func (s *Server) ListTracepointFields(ctx context.Context, req *wire.DomainRequest) (*wire.FieldList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, err := s.mgr.ListTracepointFields(ctx, req.Handle.Handle())
	if err != nil {
		return nil, err
	}
	return &wire.FieldList{Fields: fields}, nil
}

// AddContext attaches a context to channels.
func (s *Server) AddContext(ctx context.Context, req *wire.AddContextRequest) (*wire.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.AddContext(ctx, req.Handle.Handle(), req.Context, req.EventName, req.Channel); err != nil {
		return nil, err
	}
	return &wire.Empty{}, nil
}

// EnableEvent serves all three enable variants. A request without an
// event is a broadcast enable of the channel's events.
func (s *Server) EnableEvent(ctx context.Context, req *wire.EnableEventRequest) (*wire.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.EnableEventWithExclusions(ctx, req.Handle.Handle(), req.Event, req.Channel, req.Filter, req.Exclusions); err != nil {
		return nil, err
	}
	return &wire.Empty{}, nil
}

// DisableEvent disables events on a channel.
func (s *Server) DisableEvent(ctx context.Context, req *wire.DisableEventRequest) (*wire.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.DisableEvent(ctx, req.Handle.Handle(), req.Name, req.Channel); err != nil {
		return nil, err
	}
	return &wire.Empty{}, nil
}

// EnableChannel creates a channel.
func (s *Server) EnableChannel(ctx context.Context, req *wire.ChannelRequest) (*wire.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.EnableChannel(ctx, req.Handle.Handle(), req.Channel); err != nil {
		return nil, err
	}
	return &wire.Empty{}, nil
}

// ListChannels returns the channels of a domain.
func (s *Server) ListChannels(ctx context.Context, req *wire.DomainRequest) (*wire.ChannelList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chans, err := s.mgr.ListChannels(ctx, req.Handle.Handle())
	if err != nil {
		return nil, err
	}
	return &wire.ChannelList{Channels: chans}, nil
}

// CreateSession creates a session.
func (s *Server) CreateSession(ctx context.Context, req *wire.SessionRequest) (*wire.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.mgr.CreateSession(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return &wire.Session{Session: sess}, nil
}

// DestroySession removes a session and everything under it.
func (s *Server) DestroySession(ctx context.Context, req *wire.SessionRequest) (*wire.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mgr.DestroySession(ctx, req.Name); err != nil {
		return nil, err
	}
	return &wire.Empty{}, nil
}

// ListSessions returns every session.
func (s *Server) ListSessions(ctx context.Context, _ *wire.Empty) (*wire.SessionList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.mgr.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return &wire.SessionList{Sessions: sessions}, nil
}
