package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/spendkeeper/internal/client/cli"
	"github.com/dmitrijs2005/spendkeeper/internal/client/config"
	"github.com/dmitrijs2005/spendkeeper/internal/flagx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx, flagx.Positional(os.Args[1:]))
}
