package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"
)

// fakeProvider is a scripted Provider for tests.
type fakeProvider struct {
	mu        sync.Mutex
	accounts  []string
	chainID   uint64
	balances  map[uint64]*big.Int // per chain
	knownIDs  map[uint64]bool
	reject    bool
	added     []Chain
	events    chan Event
	closeOnce sync.Once
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: []string{"0xabc0000000000000000000000000000000000001"},
		chainID:  ChainBase,
		balances: map[uint64]*big.Int{
			ChainBase:     big.NewInt(1_500_000_000_000_000_000), // 1.5
			ChainEthereum: big.NewInt(250_000_000_000_000_000),   // 0.25
		},
		knownIDs: map[uint64]bool{ChainBase: true},
		events:   make(chan Event, 8),
	}
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if f.reject {
		return nil, &ProviderError{Code: CodeUserRejected, Message: "user rejected the request"}
	}
	return f.accounts, nil
}

func (f *fakeProvider) ChainID(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainID, nil
}

func (f *fakeProvider) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[f.chainID]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.knownIDs[chainID] {
		return &ProviderError{Code: CodeUnrecognizedChain, Message: "unrecognized chain"}
	}
	f.chainID = chainID
	return nil
}

func (f *fakeProvider) AddChain(ctx context.Context, chain Chain) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.knownIDs[chain.ID] = true
	f.added = append(f.added, chain)
	return nil
}

func (f *fakeProvider) SignMessage(ctx context.Context, address string, message []byte) (string, error) {
	return "0xsigned", nil
}

func (f *fakeProvider) LookupName(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (f *fakeProvider) Events() <-chan Event { return f.events }

func (f *fakeProvider) Close() error {
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

func TestConnectPopulatesState(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	state, err := service.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if !state.Connected {
		t.Error("state.Connected = false")
	}
	if state.Address == "" {
		t.Error("state.Address is empty")
	}
	if state.ChainID != ChainBase {
		t.Errorf("state.ChainID = %d, want %d", state.ChainID, ChainBase)
	}
	if state.Balance != "1.5000" {
		t.Errorf("state.Balance = %q, want 1.5000", state.Balance)
	}
	if state.ChainName != "Base" || state.Currency != "ETH" {
		t.Errorf("chain metadata = %q/%q", state.ChainName, state.Currency)
	}
}

func TestConnectWithoutProvider(t *testing.T) {
	service := NewService(nil, nil)

	state, err := service.Connect(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Connect err = %v, want ErrNoProvider", err)
	}
	if state.Connected {
		t.Error("state changed despite missing provider")
	}
}

func TestConnectUserRejected(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	provider.reject = true
	service := NewService(provider, nil)

	_, err := service.Connect(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("Connect err = %v, want ErrUserRejected", err)
	}
	if service.State().Connected {
		t.Error("state connected after rejection")
	}
}

func TestDisconnectClearsState(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	if _, err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	state := service.Disconnect()
	if state.Connected || state.Address != "" || state.ChainID != 0 || state.Balance != "" {
		t.Errorf("state after Disconnect = %+v, want zero", state)
	}
}

func TestEmptyAccountsEventDisconnects(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	if _, err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	done := make(chan State, 1)
	dispose := service.Subscribe(func(s State) {
		select {
		case done <- s:
		default:
		}
	})
	defer dispose()

	provider.events <- Event{Type: EventAccountsChanged, Accounts: nil}

	select {
	case state := <-done:
		if state.Connected || state.Address != "" {
			t.Errorf("state after empty accounts event = %+v, want disconnected", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no observer notification after empty accounts event")
	}

	if service.State().Connected {
		t.Error("service still connected")
	}
}

func TestChainChangeRefreshesBalanceBeforeNotify(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	if _, err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	notified := make(chan State, 1)
	dispose := service.Subscribe(func(s State) {
		select {
		case notified <- s:
		default:
		}
	})
	defer dispose()

	// Simulate the provider moving to Ethereum on its own.
	provider.mu.Lock()
	provider.chainID = ChainEthereum
	provider.mu.Unlock()
	provider.events <- Event{Type: EventChainChanged, ChainID: ChainEthereum}

	select {
	case state := <-notified:
		// The observer must see the new chain together with the new
		// chain's balance, never the stale one.
		if state.ChainID != ChainEthereum {
			t.Errorf("observed chain = %d, want %d", state.ChainID, ChainEthereum)
		}
		if state.Balance != "0.2500" {
			t.Errorf("observed balance = %q, want 0.2500", state.Balance)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no observer notification after chain change")
	}
}

func TestSwitchChainAddsUnknownChainFromRegistry(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	if _, err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Ethereum is in the registry but not yet known to the provider, so
	// the switch must go through the add-chain fallback.
	state, err := service.SwitchChain(context.Background(), ChainEthereum)
	if err != nil {
		t.Fatalf("SwitchChain: %v", err)
	}
	if state.ChainID != ChainEthereum {
		t.Errorf("state.ChainID = %d, want %d", state.ChainID, ChainEthereum)
	}
	if len(provider.added) != 1 || provider.added[0].ID != ChainEthereum {
		t.Errorf("added chains = %+v, want Ethereum", provider.added)
	}
	if state.Balance != "0.2500" {
		t.Errorf("state.Balance = %q, want 0.2500", state.Balance)
	}
}

func TestSwitchChainUnknownEverywhere(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	if _, err := service.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err := service.SwitchChain(context.Background(), 999999)
	if !errors.Is(err, ErrUnknownChain) {
		t.Fatalf("SwitchChain err = %v, want ErrUnknownChain", err)
	}
}

func TestSubscribeDisposer(t *testing.T) {
	provider := newFakeProvider()
	defer provider.Close()
	service := NewService(provider, nil)

	var calls int
	dispose := service.Subscribe(func(State) { calls++ })

	service.Disconnect()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	dispose()
	dispose() // double dispose is a no-op
	service.Disconnect()
	if calls != 1 {
		t.Fatalf("calls after dispose = %d, want 1", calls)
	}
}

func TestFormatBalance(t *testing.T) {
	cases := []struct {
		wei  *big.Int
		want string
	}{
		{big.NewInt(0), "0.0000"},
		{big.NewInt(1_000_000_000_000_000_000), "1.0000"},
		{big.NewInt(1_234_567_890_000_000_000), "1.2346"},
		{nil, "0.0000"},
	}
	for _, tc := range cases {
		if got := FormatBalance(tc.wei); got != tc.want {
			t.Errorf("FormatBalance(%v) = %q, want %q", tc.wei, got, tc.want)
		}
	}
}
