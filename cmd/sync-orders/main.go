package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/config"
	"github.com/jafarshop/marketsync/internal/repository/postgres"
	"github.com/jafarshop/marketsync/internal/service"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/sync-orders/main.go <setting-name> <created-after>")
		fmt.Println("Example: go run cmd/sync-orders/main.go default 2024-01-01T00:00:00Z")
		os.Exit(1)
	}

	settingName := os.Args[1]

	createdAfter, err := time.Parse(time.RFC3339, os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid created-after timestamp: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	salesOrders, err := service.SyncOrders(context.Background(), repos, settingName, createdAfter, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Synced %d sales order(s)\n", len(salesOrders))
	for _, name := range salesOrders {
		fmt.Printf("  %s\n", name)
	}
}
