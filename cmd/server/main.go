package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/spendkeeper/internal/flagx"
	"github.com/dmitrijs2005/spendkeeper/internal/server"
	"github.com/dmitrijs2005/spendkeeper/internal/server/config"
)

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if flagx.Subcommand(os.Args[1:]) == "sweep" {
		return app.Sweep(ctx)
	}
	return app.Run(ctx)
}

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
