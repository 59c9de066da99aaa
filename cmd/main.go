package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zengo/internal/config"
	"zengo/internal/cooldown"
	"zengo/internal/game"
	"zengo/internal/storage"
	"zengo/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The store is required; unlike Redis there is nothing to fall back to.
	store, err := storage.NewMySQLStore(cfg.Database.MySQL, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer store.Close()
	log.Println("MySQL connected successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gate cooldown.Admitter
	switch cfg.Cooldown.Backend {
	case config.BackendRedis:
		redisStore, err := storage.NewRedisStore(cfg.Database.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		log.Println("Redis connected successfully")
		gate = cooldown.NewRedisGate(redisStore.GetClient(), cfg.Cooldown.Window)
	default:
		memGate := cooldown.New(cfg.Cooldown.Window)
		go memGate.Run(ctx, cfg.Cooldown.SweepInterval)
		gate = memGate
	}
	log.Printf("Cooldown gate: %s backend, window %s", cfg.Cooldown.Backend, cfg.Cooldown.Window)

	hub := web.NewEventHub()
	go hub.Run(ctx)

	svc := game.NewService(store, gate, hub)
	r := web.NewRouter(svc, hub, store.Ping)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	cancel()

	log.Println("Server stopped")
}
