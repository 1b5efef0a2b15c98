package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahrav/go-triad/internal/server"
)

// ServeCmd starts the HTTP API.
// Usage: triad serve --addr :3001
type ServeCmd struct {
	Addr string `short:"a" long:"addr" description:"listen address (overrides server.addr)"`

	root *Options
}

// Execute runs the server until SIGINT or SIGTERM.
func (s *ServeCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := s.root.bootstrap(ctx)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		a.cfg.Server.Addr = s.Addr
	}

	srv := server.New(a.cfg.Server, a.orch,
		server.WithLogger(a.logger),
		server.WithGatherer(a.registry),
	)
	return srv.ListenAndServe(ctx)
}
