package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolhub.org/internal/auth"
	"schoolhub.org/internal/config"
	"schoolhub.org/internal/httpapi"
	"schoolhub.org/internal/obs"
	"schoolhub.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.DatabaseURL == "" {
		log.Fatal("missing DSN: set SCHOOLHUB_PG_DSN")
	}

	store, err := pg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	codec, err := auth.NewTokenCodec(cfg.AuthSecret, auth.WithValidity(cfg.TokenValidity))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	svc, err := auth.NewService(store, codec)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.EnsureBuiltins(bootCtx); err != nil {
		cancelBoot()
		log.Fatalf("seed permissions: %v", err)
	}
	cancelBoot()

	api := httpapi.New(svc, codec, store, httpapi.Options{
		Version:      version,
		MaxBodyBytes: cfg.MaxBodyBytes,
		RateBurst:    cfg.RateBurst,
		RatePerSec:   cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting schoolhub-auth %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
