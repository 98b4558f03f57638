// Package main seeds the configured storage backend with demo fixtures.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/camp-network/marketplace/internal/app/runtime"
	"github.com/camp-network/marketplace/internal/config"
	"github.com/camp-network/marketplace/internal/fixtures"
)

func main() {
	envFile := flag.String("env", ".env", "Path to env file with overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("load env (%s): %v", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Seeding the memory backend is pointless; the data dies with the
	// process. Require a persistent target.
	if cfg.Storage.Mode == "" || cfg.Storage.Mode == "memory" {
		log.Fatal("set CAMP_STORAGE_MODE to postgres or docstore before seeding")
	}
	cfg.Storage.Seed = false

	app, err := runtime.NewApplicationWithConfig(cfg)
	if err != nil {
		log.Fatalf("initialize application: %v", err)
	}

	if err := fixtures.Seed(context.Background(), app.Store()); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %s backend with demo fixtures", cfg.Storage.Mode)
}
