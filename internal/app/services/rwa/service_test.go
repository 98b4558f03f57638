package rwa

import (
	"context"
	"testing"

	domain "github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/storage/memory"
)

func TestCreateComputesTotals(t *testing.T) {
	service := NewService(memory.New(), nil)

	created, err := service.Create(context.Background(), CreateInput{
		Name:         "Marina Tower Unit 4B",
		PropertyType: "residential",
		Location:     "Lisbon",
		TotalTokens:  10000,
		TokenPrice:   25,
		APY:          6.5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != domain.StatusAvailable {
		t.Errorf("status = %q, want available", created.Status)
	}
	if created.AvailableTokens != 10000 {
		t.Errorf("available = %d, want 10000", created.AvailableTokens)
	}
	if created.TotalValue != 250000 {
		t.Errorf("total value = %v, want 250000", created.TotalValue)
	}
}

func TestCreateValidation(t *testing.T) {
	service := NewService(memory.New(), nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{TotalTokens: 10, TokenPrice: 1}); err == nil {
		t.Error("missing name accepted")
	}
	if _, err := service.Create(ctx, CreateInput{Name: "X", TotalTokens: 0, TokenPrice: 1}); err == nil {
		t.Error("zero tokens accepted")
	}
	if _, err := service.Create(ctx, CreateInput{Name: "X", TotalTokens: 10, TokenPrice: 0}); err == nil {
		t.Error("zero price accepted")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := memory.New()
	service := NewService(store, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{Name: "A", TotalTokens: 10, TokenPrice: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := service.Create(ctx, CreateInput{Name: "B", TotalTokens: 10, TokenPrice: 1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := service.List(ctx, domain.StatusAvailable, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
