package client

import (
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// newRemote returns a Client for address. grpc.NewClient does not
// connect, so an absent daemon surfaces on the first call.
func newRemote(address string, logger *slog.Logger, extra ...grpc.DialOption) (*Client, error) {
	target := parseAddress(address)
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, extra...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", target, err)
	}
	logger.Debug("control client created", "target", target)
	return newClient(conn, logger), nil
}

// parseAddress turns a bare socket path into a unix:// target and
// leaves unix:// targets and host:port addresses alone.
func parseAddress(address string) string {
	if strings.HasPrefix(address, "/") {
		return "unix://" + address
	}
	return address
}
