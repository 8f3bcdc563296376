// Command journey360 turns plain-language requirements into a form schema,
// generated test cases and a runnable mock API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}
