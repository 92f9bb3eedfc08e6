package eth

import (
	"fmt"
	"sort"
	"strings"
)

// ChainPreset is a predefined network configuration
type ChainPreset struct {
	Name    string
	ChainID uint64
	RPCURL  string
}

// ChainPresets contains predefined configurations for common networks
var ChainPresets = map[string]ChainPreset{
	"local": {
		Name:    "local",
		ChainID: 31337,
		RPCURL:  "http://localhost:8545",
	},
	"mainnet": {
		Name:    "mainnet",
		ChainID: 1,
		RPCURL:  "https://eth.llamarpc.com",
	},
	"sepolia": {
		Name:    "sepolia",
		ChainID: 11155111,
		RPCURL:  "https://rpc.sepolia.org",
	},
	"base": {
		Name:    "base",
		ChainID: 8453,
		RPCURL:  "https://mainnet.base.org",
	},
	"base-sepolia": {
		Name:    "base-sepolia",
		ChainID: 84532,
		RPCURL:  "https://sepolia.base.org",
	},
}

// GetChainPreset returns a preset by name (case-insensitive)
func GetChainPreset(name string) (ChainPreset, bool) {
	preset, ok := ChainPresets[strings.ToLower(name)]
	return preset, ok
}

// ListPresets returns all available preset names sorted alphabetically
func ListPresets() []string {
	names := make([]string, 0, len(ChainPresets))
	for name := range ChainPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChainName returns a human-readable name for well-known chain IDs
func ChainName(chainID uint64) string {
	switch chainID {
	case 1:
		return "Ethereum Mainnet"
	case 11155111:
		return "Sepolia Testnet"
	case 31337:
		return "Local Network"
	case 8453:
		return "Base Mainnet"
	case 84532:
		return "Base Sepolia"
	default:
		return fmt.Sprintf("Chain %d", chainID)
	}
}
