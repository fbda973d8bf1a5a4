package main

import (
	"context"
	"log"

	"ai-studyquiz-be/internal/bootstrap"
	"ai-studyquiz-be/internal/config"
	"ai-studyquiz-be/internal/server"
	"ai-studyquiz-be/internal/tracer"
	"ai-studyquiz-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 1a. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Start Background Services before the server accepts requests; the
	// in-process queue drops messages that have no subscriber.
	log.Println("Background: Starting Condensation Consumer...")
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
