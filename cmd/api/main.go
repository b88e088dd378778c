package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"

	"github.com/pgm-labs/pgm-backend/config"
	"github.com/pgm-labs/pgm-backend/internal/api/http/middleware"
	"github.com/pgm-labs/pgm-backend/internal/auth"
	"github.com/pgm-labs/pgm-backend/internal/bootstrap"
	"github.com/pgm-labs/pgm-backend/internal/github"
	"github.com/pgm-labs/pgm-backend/internal/projects/repository"
	"github.com/pgm-labs/pgm-backend/internal/projects/service"
	"github.com/pgm-labs/pgm-backend/internal/stagnation"
)

const serviceName = "pgm-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	var (
		store      repository.Store
		authClient *fbauth.Client
	)

	switch cfg.Store.Driver {
	case "firestore":
		app, err := auth.NewApp(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		authClient, err = app.Auth(ctx)
		if err != nil {
			log.Fatalf("firebase auth client: %v", err)
		}
		fsClient, err := app.Firestore(ctx)
		if err != nil {
			log.Fatalf("firestore client: %v", err)
		}
		defer fsClient.Close()
		store = repository.NewFirestoreStore(fsClient)
	case "memory":
		log.Println("[warn] operation=startup message=using in-memory store, data is not persisted")
		store = repository.NewMemStore()
	}

	commits := github.NewClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout)

	var limiter middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	} else {
		limiter = middleware.NewLocalLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		AuthClient:  authClient,
		Store:       store,
		Commits:     commits,
		Limiter:     limiter,
		CORSOrigins: cfg.CORS.Origins,
	})

	recorder := service.NewActivityRecorder(store)
	scanner := stagnation.NewScanner(store, recorder, cfg.Stagnation.ThresholdDays)
	scheduler := stagnation.NewScheduler(scanner, cfg.Stagnation.CronExpr)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("schedule stagnation scan: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[info] operation=startup env=%s port=%s", cfg.App.Environment, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Println("[info] operation=shutdown message=signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] operation=shutdown error=%v", err)
	}

	// Wait for any in-flight scan before exiting.
	<-scheduler.Stop().Done()
}
