package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/config"
	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/internal/store"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-seller/main.go <seller-name> <tier> [kaspi-token]")
		fmt.Println("Example: go run cmd/create-seller/main.go \"Satu Shop\" premium \"kaspi-token-12345\"")
		os.Exit(1)
	}

	sellerName := os.Args[1]
	tier := domain.SubscriptionTier(os.Args[2])
	if !tier.IsValid() {
		fmt.Fprintf(os.Stderr, "Invalid tier %q: must be free, standard or premium\n", os.Args[2])
		os.Exit(1)
	}
	var token string
	if len(os.Args) > 3 {
		token = os.Args[3]
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
	db, err := store.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	docs := store.NewPostgresStore(db, logger)
	if err := docs.EnsureSchema(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure schema: %v\n", err)
		os.Exit(1)
	}

	repos := repository.New(docs, logger)

	seller := &domain.Seller{
		Name:       sellerName,
		Tier:       tier,
		KaspiToken: token,
		IsActive:   true,
	}
	if err := repos.Sellers.Create(context.Background(), seller); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create seller: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seller created successfully!\n\n")
	fmt.Printf("Seller ID: %s\n", seller.ID.String())
	fmt.Printf("Seller Name: %s\n", seller.Name)
	fmt.Printf("Tier: %s (%d calls/hour)\n", seller.Tier, seller.HourlyQuota)
	if token == "" {
		fmt.Printf("\nNo Kaspi token stored yet. Save one with:\n")
		fmt.Printf("POST /v1/sellers/%s/token\n", seller.ID.String())
	}
}
