package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"goconcord/internal/config"
	"goconcord/internal/container"
	"goconcord/internal/report"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	os.Exit(run(ctx, appContainer))
}

// run executes one validation run and returns the process exit code
func run(ctx context.Context, c *container.Container) int {
	defer c.Shutdown(context.Background())

	if err := c.InitDatabase(ctx); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return 1
	}

	r, err := c.Orchestrator.Run(ctx)
	if err != nil {
		log.Printf("Validation run aborted: %v", err)
		return 1
	}
	if err := report.RenderText(os.Stdout, r); err != nil {
		log.Printf("Failed to render report: %v", err)
		return 1
	}
	if err := c.Export(ctx, r); err != nil {
		log.Printf("Failed to export report: %v", err)
		return 1
	}

	if !r.Passed() {
		return 1
	}
	return 0
}
