// Command chatex is an interactive client for the Chatex exchange API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/chatex/internal/cli"
	"github.com/dmitrijs2005/chatex/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig(os.Args[1:])

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
