package main

import (
	"io"

	"github.com/jessevdk/go-flags"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"f" long:"config" description:"config YAML path"`

	Serve  ServeCmd  `command:"serve" description:"Start the HTTP API"`
	Ask    AskCmd    `command:"ask" description:"Compare one prompt in the terminal"`
	Worker WorkerCmd `command:"worker" description:"Run the Temporal comparison worker"`
}

func newOptions(stdout io.Writer) *Options {
	o := &Options{}
	o.Serve.root = o
	o.Ask.root = o
	o.Ask.stdout = stdout
	o.Worker.root = o
	return o
}

// run parses args and executes the selected command.
func run(args []string, stdout io.Writer) error {
	parser := flags.NewParser(newOptions(stdout), flags.Default)
	_, err := parser.ParseArgs(args)
	return err
}
