package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/storage"
)

func TestQueryEncoding(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out []agent.Agent
	err = client.From("agents").
		Eq("status", "active").
		Is("is_trending", true).
		Order("volume_24h", false).
		Limit(8).
		Get(context.Background(), &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if gotPath != "/rest/v1/agents" {
		t.Errorf("path = %q, want /rest/v1/agents", gotPath)
	}
	for _, want := range []string{"status=eq.active", "is_trending=is.true", "order=volume_24h.desc", "limit=8"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestClientAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out []agent.Agent
	if err := client.From("agents").Get(context.Background(), &out); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if gotAPIKey != "secret" {
		t.Errorf("apikey header = %q, want secret", gotAPIKey)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization header = %q, want Bearer secret", gotAuth)
	}
}

func TestStoreAgentRoundTrip(t *testing.T) {
	// Minimal fake of the REST surface: one collection, insert echoes the
	// representation back, get filters by id.
	var stored []agent.Agent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			var batch []agent.Agent
			if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			stored = append(stored, batch...)
			json.NewEncoder(w).Encode(batch)
		case http.MethodGet:
			id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
			for _, a := range stored {
				if a.ID == id {
					if r.Header.Get("Accept") == "application/vnd.pgrst.object+json" {
						json.NewEncoder(w).Encode(a)
					} else {
						json.NewEncoder(w).Encode([]agent.Agent{a})
					}
					return
				}
			}
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	store := NewStore(client)
	ctx := context.Background()

	created, err := store.CreateAgent(ctx, agent.Agent{
		Name:         "Atlas",
		Symbol:       "ATLS",
		Category:     agent.CategoryFinance,
		Status:       agent.StatusActive,
		CurrentPrice: "24.50",
		RevenueSplit: agent.DefaultRevenueSplit,
	})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateAgent did not assign an id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreateAgent did not stamp created_at")
	}

	got, err := store.GetAgent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if got.Symbol != "ATLS" || got.CurrentPrice != "24.50" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.RevenueSplit.Total() != 100 {
		t.Errorf("revenue split total = %d, want 100", got.RevenueSplit.Total())
	}

	if _, err := store.GetAgent(ctx, "missing"); err != storage.ErrNotFound {
		t.Errorf("GetAgent(missing) = %v, want storage.ErrNotFound", err)
	}
}

func TestObjectPaths(t *testing.T) {
	p := AvatarPath("user-1", "me.png")
	if !strings.HasPrefix(p, "avatars/user-1/") || !strings.HasSuffix(p, "_me.png") {
		t.Errorf("AvatarPath = %q", p)
	}
	p = AgentMediaPath("agent-7", "logo.svg")
	if !strings.HasPrefix(p, "agents/agent-7/") {
		t.Errorf("AgentMediaPath = %q", p)
	}
	p = ListingMediaPath("rwa-3", "tower.jpg")
	if !strings.HasPrefix(p, "rwa/rwa-3/") {
		t.Errorf("ListingMediaPath = %q", p)
	}
}

func TestObjectUploadReturnsPublicURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/storage/v1/object/media/") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"Key":"media/avatars/u/1_a.png"}`))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := client.Objects(BucketMedia).Upload(context.Background(), "avatars/u/1_a.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want := server.URL + "/storage/v1/object/public/media/avatars/u/1_a.png"
	if url != want {
		t.Errorf("Upload url = %q, want %q", url, want)
	}
}
