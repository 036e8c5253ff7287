package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phillip-england/cineadmin/internal/clientapp"
	"github.com/phillip-england/cineadmin/internal/envutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := envutil.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := clientapp.DefaultConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := clientapp.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
