// Command triad asks one question of three personas at once. It serves the
// comparison over HTTP, prints it in the terminal, or hosts the durable
// Temporal worker.
//
// Usage:
//
//	triad -f config.yaml serve --addr :3001
//	triad -f config.yaml ask [--json] [--durable] PROMPT...
//	triad -f config.yaml worker
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}
}
