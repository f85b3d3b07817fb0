// Command sandbox runs an in-memory Chatex API for local development.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/chatex/internal/sandbox"
)

func main() {
	cfg := sandbox.LoadConfig(os.Args[1:])

	if err := sandbox.NewApp(cfg).Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
