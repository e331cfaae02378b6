// Command origamictl creates, edits and archives DNA origami designs.
package main

import (
	"context"
	"os"
	"os/signal"

	"origamicore/internal/cli"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}
