package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ugel-ilo/sgd-backend/internal/app"
	"github.com/ugel-ilo/sgd-backend/internal/config"
)

// The api binary serves HTTP and runs the ingest workers in-process. For a
// split deployment run cmd/worker alongside with NUM_WORKERS=0 here.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
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

	if cfg.NumWorkers > 0 {
		go func() {
			if err := application.Pool.Run(ctx); err != nil {
				log.Printf("worker pool stopped: %v", err)
			}
		}()
	}

	go application.Server.Start()
	log.Println("SGD backend is running; DB connected and bootstrapped.")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
