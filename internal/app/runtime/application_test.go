package runtime

import (
	"context"
	"testing"

	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/internal/config"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0 // any free port
	cfg.Logging.Output = "stderr"
	return cfg
}

func TestNewApplicationSeedsMemoryStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.Server.Port = 18080

	app, err := NewApplicationWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewApplicationWithConfig: %v", err)
	}

	agents, err := app.Store().ListAgents(context.Background(), storage.AgentQuery{})
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) == 0 {
		t.Error("memory store not seeded")
	}
}

func TestNewApplicationWithoutSeed(t *testing.T) {
	cfg := memoryConfig()
	cfg.Server.Port = 18081
	cfg.Storage.Seed = false

	app, err := NewApplicationWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewApplicationWithConfig: %v", err)
	}

	agents, err := app.Store().ListAgents(context.Background(), storage.AgentQuery{})
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("store has %d agents, want empty", len(agents))
	}
}

func TestUnknownStorageMode(t *testing.T) {
	cfg := memoryConfig()
	cfg.Server.Port = 18082
	cfg.Storage.Mode = "etcd"

	if _, err := NewApplicationWithConfig(cfg); err == nil {
		t.Error("unknown storage mode accepted")
	}
}
