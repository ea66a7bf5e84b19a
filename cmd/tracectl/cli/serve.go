package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/frobware/go-tracectl/server"
)

// ServeCmd starts the control daemon.
type ServeCmd struct {
	TCPAddress     string `name:"tcp-address" help:"Also serve the control API on this TCP address (overrides daemon.tcp_address)."`
	MetricsAddress string `name:"metrics-address" help:"Serve Prometheus metrics on this address (overrides daemon.metrics_address)."`
}

// Run executes the serve command.
func (c *ServeCmd) Run(cli *CLI) error {
	logger, err := cli.LoggerFromConfig()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	appConfig, err := cli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dirs, err := cli.RuntimeDirs(appConfig)
	if err != nil {
		return fmt.Errorf("runtime directory: %w", err)
	}

	cfg := server.RunConfig{
		Dirs:           dirs,
		TCPAddress:     firstNonEmpty(c.TCPAddress, appConfig.Daemon.TCPAddress),
		MetricsAddress: firstNonEmpty(c.MetricsAddress, appConfig.Daemon.MetricsAddress),
		Logger:         logger,
		Config:         appConfig,
	}

	// Create context that cancels on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.Run(ctx, cfg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
