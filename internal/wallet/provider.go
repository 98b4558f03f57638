// Package wallet manages the connection to an external EVM wallet
// provider: account discovery, chain switching, native balance tracking,
// and message signing.
package wallet

import (
	"context"
	"fmt"
	"math/big"
)

// EIP-1193 style provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// ProviderError carries the numeric code a wallet provider attaches to a
// rejected request.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// EventType classifies provider events.
type EventType string

const (
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
	EventDisconnect      EventType = "disconnect"
)

// Event is an asynchronous notification from the provider.
type Event struct {
	Type     EventType
	Accounts []string // accountsChanged: the new account list, may be empty
	ChainID  uint64   // chainChanged: the new chain
}

// Provider is the wallet capability the service drives. Implementations
// wrap a JSON-RPC endpoint or, in tests, a scripted fake.
type Provider interface {
	// RequestAccounts prompts for account access and returns the
	// authorized accounts. A refusal surfaces as *ProviderError with
	// CodeUserRejected.
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the currently selected chain.
	ChainID(ctx context.Context) (uint64, error)

	// BalanceAt returns the native balance of address in wei.
	BalanceAt(ctx context.Context, address string) (*big.Int, error)

	// SwitchChain selects another chain. An unrecognized chain surfaces
	// as *ProviderError with CodeUnrecognizedChain.
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain registers a chain so a later SwitchChain can select it.
	AddChain(ctx context.Context, chain Chain) error

	// SignMessage signs an arbitrary message with the account's key and
	// returns the hex-encoded signature.
	SignMessage(ctx context.Context, address string, message []byte) (string, error)

	// LookupName reverse-resolves a human-readable name for the address.
	// Providers without name service support return "".
	LookupName(ctx context.Context, address string) (string, error)

	// Events delivers provider notifications until Close.
	Events() <-chan Event

	// Close releases provider resources and closes the event channel.
	Close() error
}
