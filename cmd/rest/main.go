package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"policylens-be/internal/bootstrap"
	"policylens-be/internal/config"
	"policylens-be/internal/server"
	"policylens-be/internal/tracer"
	"policylens-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database (optional, query history only)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			log.Printf("[WARN] Unable to connect to database, query history disabled: %v", err)
		} else {
			gormDB = db
		}
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	go container.WebSocketHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("[FATAL] Consumer Service: %v", err)
	}
	if container.NatsSubscriber != nil {
		if err := container.ReloadSignalService.ListenNats(ctx, container.NatsSubscriber); err != nil {
			log.Printf("[WARN] NATS reload listener: %v", err)
		}
	}
	if container.Watcher != nil {
		if err := container.Watcher.Start(ctx); err != nil {
			log.Printf("[WARN] Document watcher: %v", err)
		}
	}
	go func() {
		if err := container.CourseService.Warmup(ctx); err != nil {
			log.Printf("[WARN] Warmup: %v", err)
		}
	}()

	// 6. Run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
