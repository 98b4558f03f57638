package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/camp-network/marketplace/pkg/logger"
)

// Sentinel errors surfaced by the service.
var (
	ErrNoProvider   = errors.New("no wallet detected")
	ErrUserRejected = errors.New("connection request rejected")
	ErrUnknownChain = errors.New("chain not in registry")
)

// State is an immutable snapshot of the wallet connection. Balance is the
// native balance formatted to four decimals; all fields are zero when
// disconnected.
type State struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Name      string `json:"name,omitempty"` // reverse-resolved, best effort
	ChainID   uint64 `json:"chain_id,omitempty"`
	ChainName string `json:"chain_name,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Balance   string `json:"balance,omitempty"`
}

// Observer receives state snapshots after every change.
type Observer func(State)

// Service mirrors an external wallet provider into an observable local
// snapshot. It is constructed per owner, not shared as a singleton, so
// tests and callers manage independent instances.
type Service struct {
	provider Provider
	log      *logger.Logger

	mu        sync.Mutex
	state     State
	observers map[int]Observer
	nextID    int
	watching  bool
}

// NewService wraps provider. A nil provider models an environment with
// no wallet available: Connect fails with ErrNoProvider and everything
// else is a no-op on the disconnected snapshot.
func NewService(provider Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("wallet")
	}
	return &Service{
		provider:  provider,
		log:       log,
		observers: make(map[int]Observer),
	}
}

// Connect requests account access and populates the snapshot. The state
// is left untouched on failure.
func (s *Service) Connect(ctx context.Context) (State, error) {
	if s.provider == nil {
		return s.State(), ErrNoProvider
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) && provErr.Code == CodeUserRejected {
			return s.State(), ErrUserRejected
		}
		return s.State(), err
	}
	if len(accounts) == 0 {
		return s.State(), ErrUserRejected
	}
	address := accounts[0]

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return s.State(), err
	}

	balance, err := s.fetchBalance(ctx, address)
	if err != nil {
		return s.State(), err
	}

	// Best effort; providers without name service support return "".
	name, err := s.provider.LookupName(ctx, address)
	if err != nil {
		s.log.WithError(err).Debug("name lookup failed")
		name = ""
	}

	next := State{
		Connected: true,
		Address:   address,
		Name:      name,
		ChainID:   chainID,
		Balance:   balance,
	}
	if chain, ok := ChainByID(chainID); ok {
		next.ChainName = chain.Name
		next.Currency = chain.Currency
	}

	s.mu.Lock()
	s.state = next
	if !s.watching {
		s.watching = true
		go s.watch()
	}
	s.mu.Unlock()

	s.log.WithField("chain_id", chainID).Info("wallet connected")
	s.notify(next)
	return next, nil
}

// Disconnect clears the local snapshot. Wallet providers expose no
// programmatic disconnect, so nothing is sent to the provider.
func (s *Service) Disconnect() State {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	s.notify(State{})
	return State{}
}

// State returns the current snapshot without blocking.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SwitchChain asks the provider to select chainID. If the provider does
// not recognize the chain, it is registered from the built-in registry
// and the switch is retried. A chain absent from both the provider and
// the registry fails with ErrUnknownChain.
func (s *Service) SwitchChain(ctx context.Context, chainID uint64) (State, error) {
	if s.provider == nil {
		return s.State(), ErrNoProvider
	}

	err := s.provider.SwitchChain(ctx, chainID)
	if err != nil {
		var provErr *ProviderError
		if !errors.As(err, &provErr) || provErr.Code != CodeUnrecognizedChain {
			return s.State(), err
		}
		chain, ok := ChainByID(chainID)
		if !ok {
			return s.State(), ErrUnknownChain
		}
		if err := s.provider.AddChain(ctx, chain); err != nil {
			return s.State(), err
		}
		if err := s.provider.SwitchChain(ctx, chainID); err != nil {
			return s.State(), err
		}
	}

	return s.applyChainChange(ctx, chainID), nil
}

// SignMessage signs message with the connected account's key.
func (s *Service) SignMessage(ctx context.Context, message []byte) (string, error) {
	if s.provider == nil {
		return "", ErrNoProvider
	}
	state := s.State()
	if !state.Connected {
		return "", errors.New("wallet not connected")
	}

	signature, err := s.provider.SignMessage(ctx, state.Address, message)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) && provErr.Code == CodeUserRejected {
			return "", ErrUserRejected
		}
		return "", err
	}
	return signature, nil
}

// Subscribe registers an observer and returns a disposer removing
// exactly this registration. Disposing twice is a no-op.
func (s *Service) Subscribe(observer Observer) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers[id] = observer
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// watch consumes provider events until the event channel closes.
func (s *Service) watch() {
	for event := range s.provider.Events() {
		switch event.Type {
		case EventAccountsChanged:
			s.handleAccountsChanged(event.Accounts)
		case EventChainChanged:
			s.applyChainChange(context.Background(), event.ChainID)
		case EventDisconnect:
			s.Disconnect()
		}
	}
}

// handleAccountsChanged mirrors the provider's account list. An empty
// list means the user revoked access: identical to Disconnect.
func (s *Service) handleAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		s.Disconnect()
		return
	}
	address := accounts[0]

	ctx := context.Background()
	balance, err := s.fetchBalance(ctx, address)
	if err != nil {
		s.log.WithError(err).Warn("balance refresh failed on account change")
		balance = ""
	}
	name, _ := s.provider.LookupName(ctx, address)

	s.mu.Lock()
	s.state.Connected = true
	s.state.Address = address
	s.state.Name = name
	s.state.Balance = balance
	next := s.state
	s.mu.Unlock()

	s.notify(next)
}

// applyChainChange updates the chain and refreshes the balance before
// observers are notified, so no observer ever sees the old balance
// against the new chain.
func (s *Service) applyChainChange(ctx context.Context, chainID uint64) State {
	s.mu.Lock()
	address := s.state.Address
	connected := s.state.Connected
	s.mu.Unlock()

	balance := ""
	if connected && address != "" {
		var err error
		balance, err = s.fetchBalance(ctx, address)
		if err != nil {
			s.log.WithError(err).Warn("balance refresh failed on chain change")
			balance = ""
		}
	}

	s.mu.Lock()
	s.state.ChainID = chainID
	s.state.Balance = balance
	if chain, ok := ChainByID(chainID); ok {
		s.state.ChainName = chain.Name
		s.state.Currency = chain.Currency
	} else {
		s.state.ChainName = ""
		s.state.Currency = ""
	}
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return next
}

func (s *Service) fetchBalance(ctx context.Context, address string) (string, error) {
	wei, err := s.provider.BalanceAt(ctx, address)
	if err != nil {
		return "", err
	}
	return FormatBalance(wei), nil
}

func (s *Service) notify(state State) {
	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(state)
	}
}

var weiPerEther = new(big.Float).SetFloat64(1e18)

// FormatBalance renders a wei amount as whole native units with four
// decimal places.
func FormatBalance(wei *big.Int) string {
	if wei == nil {
		return "0.0000"
	}
	value := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther)
	return value.Text('f', 4)
}
