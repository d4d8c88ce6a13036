package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
)

func main() {
	cfg := config.Load()

	logger, err := applog.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	be, err := backend.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	applog.Info(nil, "storefront.backend", map[string]any{"kind": cfg.BackendKind, "url": cfg.BackendURL})

	var cache cartstore.Cache = cartstore.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Printf("[warn] redis %s unreachable, using in-memory carts: %v", cfg.RedisAddr, err)
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			cache = cartstore.NewRedisCache(rdb)
			applog.Info(nil, "storefront.cache.redis", map[string]any{"addr": cfg.RedisAddr})
		}
	}
	store := cartstore.New(be, cache)

	app := handlers.NewApp(handlers.NewDeps(be, store), handlers.AppOptions{AccessLog: true})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down storefront...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
