package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahrav/go-triad/internal/worker"
)

// WorkerCmd hosts the comparison workflow on the configured task queue.
type WorkerCmd struct {
	root *Options
}

// Execute runs the worker until SIGINT or SIGTERM.
func (w *WorkerCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := w.root.bootstrap(ctx)
	if err != nil {
		return err
	}

	tc, err := worker.Dial(a.cfg.Temporal, a.logger)
	if err != nil {
		return err
	}
	defer tc.Close()

	a.logger.Info("temporal worker starting",
		"host_port", a.cfg.Temporal.HostPort,
		"task_queue", a.cfg.Temporal.TaskQueue)
	return worker.Run(ctx, tc, a.cfg.Temporal, a.caller, a.logger)
}
