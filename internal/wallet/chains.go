package wallet

// Chain describes an EVM network the wallet can operate on.
type Chain struct {
	ID          uint64 `json:"chain_id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	RPCURL      string `json:"rpc_url"`
	ExplorerURL string `json:"explorer_url"`
}

// Chain ids supported out of the box.
const (
	ChainEthereum    = 1
	ChainPolygon     = 137
	ChainBase        = 8453
	ChainBaseSepolia = 84532
)

// SupportedChains is the built-in chain registry. SwitchChain falls back
// to AddChain with the registry entry when the provider does not know
// the chain yet.
var SupportedChains = map[uint64]Chain{
	ChainEthereum: {
		ID:          ChainEthereum,
		Name:        "Ethereum",
		Currency:    "ETH",
		RPCURL:      "https://eth.llamarpc.com",
		ExplorerURL: "https://etherscan.io",
	},
	ChainBase: {
		ID:          ChainBase,
		Name:        "Base",
		Currency:    "ETH",
		RPCURL:      "https://mainnet.base.org",
		ExplorerURL: "https://basescan.org",
	},
	ChainPolygon: {
		ID:          ChainPolygon,
		Name:        "Polygon",
		Currency:    "MATIC",
		RPCURL:      "https://polygon-rpc.com",
		ExplorerURL: "https://polygonscan.com",
	},
	ChainBaseSepolia: {
		ID:          ChainBaseSepolia,
		Name:        "Base Sepolia",
		Currency:    "ETH",
		RPCURL:      "https://sepolia.base.org",
		ExplorerURL: "https://sepolia.basescan.org",
	},
}

// ChainByID looks up a chain in the registry.
func ChainByID(id uint64) (Chain, bool) {
	c, ok := SupportedChains[id]
	return c, ok
}
