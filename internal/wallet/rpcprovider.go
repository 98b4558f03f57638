package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/camp-network/marketplace/internal/httputil"
)

// RPCConfig configures the JSON-RPC provider.
type RPCConfig struct {
	// URL of the initial JSON-RPC endpoint. Defaults to the Base
	// mainnet endpoint from the chain registry.
	URL string
	// PollInterval between account/chain checks. Defaults to 5s.
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// RPCProvider implements Provider over a JSON-RPC HTTP endpoint. Chain
// switching repoints the provider at the registered chain's endpoint;
// account and chain changes are detected by polling and delivered as
// events, mirroring the push-style notifications of injected providers.
type RPCProvider struct {
	httpClient   *http.Client
	pollInterval time.Duration

	mu       sync.Mutex
	endpoint string
	chainID  uint64
	accounts []string
	custom   map[uint64]Chain
	polling  bool

	events chan Event
	done   chan struct{}
	once   sync.Once
}

var _ Provider = (*RPCProvider)(nil)

// NewRPCProvider creates a provider against cfg.URL.
func NewRPCProvider(cfg RPCConfig) *RPCProvider {
	url := cfg.URL
	if url == "" {
		url = SupportedChains[ChainBase].RPCURL
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &RPCProvider{
		httpClient:   httpClient,
		pollInterval: interval,
		endpoint:     url,
		custom:       make(map[uint64]Chain),
		events:       make(chan Event, 8),
		done:         make(chan struct{}),
	}
}

// RequestAccounts lists the node's unlocked accounts. eth_requestAccounts
// is an injected-provider extension (EIP-1102); a bare RPC node only
// answers eth_accounts, so that is what gets issued here.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.accounts = append([]string(nil), accounts...)
	if !p.polling {
		p.polling = true
		go p.pollLoop()
	}
	p.mu.Unlock()

	return accounts, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (uint64, error) {
	var hexID string
	if err := p.call(ctx, "eth_chainId", nil, &hexID); err != nil {
		return 0, err
	}
	id, err := parseHexUint(hexID)
	if err != nil {
		return 0, fmt.Errorf("parse chain id %q: %w", hexID, err)
	}

	p.mu.Lock()
	p.chainID = id
	p.mu.Unlock()
	return id, nil
}

func (p *RPCProvider) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	var hexBalance string
	if err := p.call(ctx, "eth_getBalance", []any{address, "latest"}, &hexBalance); err != nil {
		return nil, err
	}
	balance, ok := new(big.Int).SetString(strings.TrimPrefix(hexBalance, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("parse balance %q", hexBalance)
	}
	return balance, nil
}

func (p *RPCProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	p.mu.Lock()
	if p.chainID == chainID {
		p.mu.Unlock()
		return nil
	}

	chain, ok := p.custom[chainID]
	if !ok {
		chain, ok = ChainByID(chainID)
	}
	if !ok {
		p.mu.Unlock()
		return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("chain %d not configured", chainID)}
	}

	p.endpoint = chain.RPCURL
	p.chainID = chainID
	p.mu.Unlock()

	p.emit(Event{Type: EventChainChanged, ChainID: chainID})
	return nil
}

func (p *RPCProvider) AddChain(ctx context.Context, chain Chain) error {
	if chain.ID == 0 || chain.RPCURL == "" {
		return fmt.Errorf("chain id and rpc url are required")
	}
	p.mu.Lock()
	p.custom[chain.ID] = chain
	p.mu.Unlock()
	return nil
}

func (p *RPCProvider) SignMessage(ctx context.Context, address string, message []byte) (string, error) {
	hexMsg := "0x" + hex.EncodeToString(message)
	var signature string
	if err := p.call(ctx, "personal_sign", []any{hexMsg, address}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// LookupName is unsupported over a plain JSON-RPC endpoint; resolving
// reverse records needs a name-service contract call.
func (p *RPCProvider) LookupName(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (p *RPCProvider) Events() <-chan Event {
	return p.events
}

func (p *RPCProvider) Close() error {
	p.once.Do(func() {
		close(p.done)
		close(p.events)
	})
	return nil
}

func (p *RPCProvider) pollLoop() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *RPCProvider) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.pollInterval)
	defer cancel()

	var accounts []string
	if err := p.call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return
	}

	p.mu.Lock()
	changed := !equalAccounts(p.accounts, accounts)
	if changed {
		p.accounts = append([]string(nil), accounts...)
	}
	p.mu.Unlock()

	if changed {
		p.emit(Event{Type: EventAccountsChanged, Accounts: accounts})
	}
}

// emit never blocks; a full channel drops the event and the next poll
// re-detects the state.
func (p *RPCProvider) emit(event Event) {
	select {
	case <-p.done:
	case p.events <- event:
	default:
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *RPCProvider) call(ctx context.Context, method string, params []any, result any) error {
	p.mu.Lock()
	endpoint := p.endpoint
	p.mu.Unlock()

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadAllStrict(resp.Body, 1<<20)
	if err != nil {
		return fmt.Errorf("rpc %s: read response: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("rpc %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return &ProviderError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}
	return json.Unmarshal(rpcResp.Result, result)
}

func parseHexUint(s string) (uint64, error) {
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0, fmt.Errorf("not a hex number")
	}
	return n.Uint64(), nil
}

func equalAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
