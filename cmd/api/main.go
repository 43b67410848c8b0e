package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goconcord/internal/api"
	"goconcord/internal/config"
	"goconcord/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Serve a run from startup so /report has something to show
	r, err := appContainer.Orchestrator.Run(ctx)
	if err != nil {
		log.Fatalf("Initial validation run failed: %v", err)
	}
	if err := appContainer.Export(ctx, r); err != nil {
		log.Fatalf("Failed to export initial run: %v", err)
	}

	handler := api.NewReportHandler(appContainer.Reports, appContainer.Orchestrator, appContainer.Logger)
	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(handler, appContainer.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting API server on %s (run %s, passed=%t)", server.Addr, r.RunID, r.Passed())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
