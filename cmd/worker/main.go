package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ugel-ilo/sgd-backend/internal/app"
	"github.com/ugel-ilo/sgd-backend/internal/config"
)

// The worker binary runs only the ingest pool. It shares the temp upload
// volume and the database with the api process.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	log.Printf("SGD worker running with %d workers.", cfg.NumWorkers)
	if err := application.Pool.Run(ctx); err != nil {
		log.Printf("worker pool stopped: %v", err)
	}
}
