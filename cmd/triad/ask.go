package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ahrav/go-triad/internal/domain"
	"github.com/ahrav/go-triad/internal/render"
	"github.com/ahrav/go-triad/internal/worker"
)

// AskCmd compares one prompt and prints the three answers.
// Usage: triad ask [--json] [--durable] PROMPT...
type AskCmd struct {
	JSON    bool `long:"json" description:"print the batch as JSON"`
	Durable bool `long:"durable" description:"run the comparison through the Temporal worker"`
	Width   int  `short:"w" long:"width" description:"total output width" default:"120"`

	root   *Options
	stdout io.Writer
}

// Execute joins the positional arguments into the prompt.
func (c *AskCmd) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := c.root.bootstrap(ctx)
	if err != nil {
		return err
	}
	prompt := strings.Join(args, " ")

	var batch domain.ComparisonBatch
	if c.Durable {
		tc, err := worker.Dial(a.cfg.Temporal, a.logger)
		if err != nil {
			return err
		}
		defer tc.Close()
		batch, err = worker.Compare(ctx, tc, a.cfg.Temporal, prompt, a.cfg.Personas)
		if err != nil {
			return err
		}
	} else {
		batch, err = a.orch.CompareAll(ctx, prompt)
		if err != nil {
			return err
		}
	}

	if c.JSON {
		return render.JSON(c.stdout, batch)
	}
	return render.Columns(c.stdout, a.cfg.Personas, batch, c.Width)
}
